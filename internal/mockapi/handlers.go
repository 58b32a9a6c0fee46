package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskdesk-cli/internal/model"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// Session

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == in.Username || u.Email == in.Email {
			writeMessage(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
	}
	s.insertUserLocked(in.Username, in.Email, in.Password)
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var found *userRec
	for _, u := range s.users {
		if u.Email == in.Email {
			found = u
			break
		}
	}
	if found == nil || bcrypt.CompareHashAndPassword(found.hash, []byte(in.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token := newSessionToken()
	s.sessions[token] = found.ID
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, s.userViewLocked(found, false))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if c, err := r.Cookie(SessionCookie); err == nil {
		delete(s.sessions, c.Value)
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		delete(s.sessions, strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
	}
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.userViewLocked(userFrom(r.Context()), false))
}

// Profile

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.userViewLocked(userFrom(r.Context()), true))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in model.UserChange
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	me := userFrom(r.Context())
	if in.Username != nil && *in.Username != me.Username {
		for _, u := range s.users {
			if u.Username == *in.Username {
				writeJSON(w, http.StatusBadRequest, map[string]string{"username": "Username already exists"})
				return
			}
		}
	}
	if in.Email != nil && *in.Email != me.Email {
		for _, u := range s.users {
			if u.Email == *in.Email {
				writeJSON(w, http.StatusBadRequest, map[string]string{"email": "Email already exists"})
				return
			}
		}
	}
	// Role changes are not accepted through the profile.
	in.IsAdmin = nil
	me.User = model.ApplyUserChange(me.User, in)
	writeJSON(w, http.StatusOK, s.userViewLocked(me, false))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	me := userFrom(r.Context())
	if bcrypt.CompareHashAndPassword(me.hash, []byte(in.CurrentPassword)) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"current_password": "Current password is incorrect"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid password")
		return
	}
	me.hash = hash
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

// Tasks

func (s *Server) ownedTask(w http.ResponseWriter, r *http.Request) *taskRec {
	t := s.findTask(pathID(r))
	if t == nil {
		writeMessage(w, http.StatusNotFound, "Not found")
		return nil
	}
	me := userFrom(r.Context())
	if t.ownerID != me.ID && !me.IsAdmin {
		writeMessage(w, http.StatusForbidden, "Not authorized")
		return nil
	}
	return t
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := userFrom(r.Context())
	out := []model.Task{}
	for _, t := range s.tasks {
		if t.ownerID == me.ID {
			out = append(out, s.taskViewLocked(t, false))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownedTask(w, r)
	if t == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.taskViewLocked(t, true))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Priority    json.RawMessage `json:"priority"`
		CategoryID  *int64          `json:"category_id"`
		DueDate     *model.Time     `json:"due_date"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"title": "Title is required"})
		return
	}
	prio := model.PriorityMedium
	if len(in.Priority) > 0 && string(in.Priority) != "null" {
		var p model.Priority
		if err := json.Unmarshal(in.Priority, &p); err == nil && p.Valid() {
			prio = p
		}
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	me := userFrom(r.Context())
	now := model.NewTime(s.now())
	rec := &taskRec{
		Task: model.Task{
			ID:          s.allocID(),
			Title:       in.Title,
			Description: in.Description,
			Priority:    prio,
			CategoryID:  in.CategoryID,
			DueDate:     in.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		ownerID: me.ID,
	}
	s.tasks = append(s.tasks, rec)
	writeJSON(w, http.StatusCreated, s.taskViewLocked(rec, false))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var change model.TaskChange
	if err := decode(r, &change); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownedTask(w, r)
	if t == nil {
		return
	}
	t.Task = model.ApplyTaskChange(t.Task, change, s.now())
	t.UpdatedAt = model.NewTime(s.now())
	writeJSON(w, http.StatusOK, s.taskViewLocked(t, false))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ownedTask(w, r)
	if t == nil {
		return
	}
	s.tasks = removeTask(s.tasks, t.ID)
	writeMessage(w, http.StatusOK, "Task deleted successfully")
}

func removeTask(ts []*taskRec, id int64) []*taskRec {
	out := ts[:0]
	for _, t := range ts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Categories

type categoryBody struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) ownedCategory(w http.ResponseWriter, r *http.Request) *categoryRec {
	c := s.findCategory(pathID(r))
	if c == nil {
		writeMessage(w, http.StatusNotFound, "Not found")
		return nil
	}
	me := userFrom(r.Context())
	if c.ownerID != me.ID && !me.IsAdmin {
		writeMessage(w, http.StatusForbidden, "Not authorized")
		return nil
	}
	return c
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := userFrom(r.Context())
	out := []model.Category{}
	for _, c := range s.categories {
		if c.ownerID == me.ID {
			out = append(out, s.categoryViewLocked(c))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryBody
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"name": "Name is required"})
		return
	}
	color := model.DefaultCategoryColor
	if in.Color != nil && *in.Color != "" {
		color = *in.Color
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &categoryRec{
		Category: model.Category{ID: s.allocID(), Name: *in.Name, Color: color},
		ownerID:  userFrom(r.Context()).ID,
	}
	s.categories = append(s.categories, c)
	writeJSON(w, http.StatusCreated, s.categoryViewLocked(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryBody
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ownedCategory(w, r)
	if c == nil {
		return
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	writeJSON(w, http.StatusOK, s.categoryViewLocked(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ownedCategory(w, r)
	if c == nil {
		return
	}
	if s.categoryViewLocked(c).TaskCount > 0 {
		writeMessage(w, http.StatusBadRequest, "Cannot delete category with tasks")
		return
	}
	out := s.categories[:0]
	for _, x := range s.categories {
		if x.ID != c.ID {
			out = append(out, x)
		}
	}
	s.categories = out
	writeMessage(w, http.StatusOK, "Category deleted successfully")
}

// Admin

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, s.userViewLocked(u, true))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in model.UserChange
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUser(pathID(r))
	if u == nil {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	if u.ID == userFrom(r.Context()).ID {
		writeMessage(w, http.StatusBadRequest, "You cannot change your own admin status")
		return
	}
	u.User = model.ApplyUserChange(u.User, model.UserChange{IsAdmin: in.IsAdmin})
	writeJSON(w, http.StatusOK, s.userViewLocked(u, false))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUser(pathID(r))
	if u == nil {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	if u.ID == userFrom(r.Context()).ID {
		writeMessage(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ownerID != u.ID {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks
	cats := s.categories[:0]
	for _, c := range s.categories {
		if c.ownerID != u.ID {
			cats = append(cats, c)
		}
	}
	s.categories = cats
	users := s.users[:0]
	for _, x := range s.users {
		if x.ID != u.ID {
			users = append(users, x)
		}
	}
	s.users = users
	for tok, id := range s.sessions {
		if id == u.ID {
			delete(s.sessions, tok)
		}
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// growthBuckets is the number of 30-day buckets reported in user growth.
const growthBuckets = 6

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, completed := 0, 0
	for _, t := range s.tasks {
		if t.Completed {
			completed++
		} else {
			active++
		}
	}

	start := s.now().UTC().Add(-180 * 24 * time.Hour)
	growth := make([]model.MonthCount, 0, growthBuckets)
	for i := 0; i < growthBuckets; i++ {
		from := start.Add(time.Duration(30*i) * 24 * time.Hour)
		to := from.Add(30 * 24 * time.Hour)
		n := 0
		for _, u := range s.users {
			if u.DateJoined == nil {
				continue
			}
			j := u.DateJoined.Time
			if !j.Before(from) && j.Before(to) {
				n++
			}
		}
		growth = append(growth, model.MonthCount{Month: from.Format("Jan"), Count: n})
	}

	writeJSON(w, http.StatusOK, model.AdminStats{
		StatusDistribution: []model.StatusCount{
			{Status: model.StatusActive, Label: "Active", Count: active},
			{Status: model.StatusCompleted, Label: "Completed", Count: completed},
		},
		UserGrowth: growth,
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedMessages(s.messages))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	for _, m := range s.messages {
		if m.ID == id {
			*m = model.MarkRead(*m)
			writeMessage(w, http.StatusOK, "Message marked as read")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Not found")
}

// Contact

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "Email is required"
	}
	if strings.TrimSpace(in.Subject) == "" {
		fields["subject"] = "Subject is required"
	}
	if strings.TrimSpace(in.Message) == "" {
		fields["message"] = "Message is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, &model.ContactMessage{
		ID:        s.allocID(),
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: model.NewTime(s.now()),
	})
	writeMessage(w, http.StatusCreated, "Message sent successfully")
}
