// Package backendtest provides an in-memory stand-in for the menu REST API.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"polykitchen/internal/domain"
)

// Server is an httptest server speaking the subset of the backend API the
// service consumes.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int64
	categories map[int64]domain.Category
	dishes     map[int64]domain.Dish
	reviews    map[int64]domain.Review
	users      map[int64]domain.AdminUser
	passwords  map[string]string
	tokens     map[string]string
	uploads    []string

	// Requests counts calls per "METHOD path".
	Requests map[string]int
	// FailPaths forces a status code for "METHOD path" keys.
	FailPaths map[string]int
}

// New starts a server with a single admin account admin/secret.
func New() *Server {
	s := &Server{
		nextID:     100,
		categories: make(map[int64]domain.Category),
		dishes:     make(map[int64]domain.Dish),
		reviews:    make(map[int64]domain.Review),
		users:      make(map[int64]domain.AdminUser),
		passwords:  map[string]string{"admin": "secret"},
		tokens:     make(map[string]string),
		Requests:   make(map[string]int),
		FailPaths:  make(map[string]int),
	}
	s.users[1] = domain.AdminUser{ID: 1, Username: "admin", Role: "admin"}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// AddCategory seeds a category and returns it with its id.
func (s *Server) AddCategory(c domain.Category) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.categories[c.ID] = c
	return c
}

// AddDish seeds a dish and returns it with its id.
func (s *Server) AddDish(d domain.Dish) domain.Dish {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.id()
	}
	s.dishes[d.ID] = d
	return d
}

// AddReview seeds a review and returns it with its id.
func (s *Server) AddReview(r domain.Review) domain.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	}
	s.reviews[r.ID] = r
	return r
}

// Category returns a stored category.
func (s *Server) Category(id int64) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok
}

// Dish returns a stored dish.
func (s *Server) Dish(id int64) (domain.Dish, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dishes[id]
	return d, ok
}

// Review returns a stored review.
func (s *Server) Review(id int64) (domain.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	return r, ok
}

// Reviews returns every stored review.
func (s *Server) Reviews() []domain.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		out = append(out, r)
	}
	return out
}

// Uploads lists stored upload paths.
func (s *Server) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

// RevokeTokens makes every issued token invalid, as if it expired.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// Calls returns how often "METHOD path" was requested.
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Requests[key]
}

// Fail forces "METHOD path" to answer with status.
func (s *Server) Fail(key string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailPaths[key] = status
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	s.mu.Lock()
	s.Requests[key]++
	status, fail := s.FailPaths[key]
	s.mu.Unlock()
	if fail {
		writeJSON(w, status, map[string]string{"error": "forced failure"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		http.NotFound(w, r)
		return
	}

	if parts[1] == "admin" {
		if len(parts) == 3 && parts[2] == "login" && r.Method == http.MethodPost {
			s.login(w, r)
			return
		}
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Недействительный токен"})
			return
		}
		s.admin(w, r, parts[2:])
		return
	}
	s.public(w, r, parts[1:])
}

func (s *Server) public(w http.ResponseWriter, r *http.Request, parts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case len(parts) == 1 && parts[0] == "categories" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.sortedCategories())
	case len(parts) == 1 && parts[0] == "dishes" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.sortedDishes())
	case len(parts) == 3 && parts[0] == "dishes" && parts[2] == "reviews" && r.Method == http.MethodGet:
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		out := []domain.Review{}
		for _, rv := range s.reviews {
			if rv.DishID == id && rv.IsApproved == domain.ModerationApproved {
				out = append(out, rv)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	case len(parts) == 1 && parts[0] == "reviews" && r.Method == http.MethodPost:
		var in domain.ReviewSubmission
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
			return
		}
		rv := domain.Review{
			ID:         s.id(),
			DishID:     in.DishID,
			UserName:   in.UserName,
			Rating:     in.Rating,
			ReviewText: in.ReviewText,
			CreatedAt:  domain.Timestamp{Time: time.Now().UTC()},
		}
		s.reviews[rv.ID] = rv
		writeJSON(w, http.StatusCreated, rv)
	case len(parts) == 1 && parts[0] == "ai-chat" && r.Method == http.MethodPost:
		var in struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, map[string]string{"output": "echo: " + in.Message})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.passwords[in.Username]; !ok || pw != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Неверное имя пользователя или пароль"})
		return
	}
	token := "tok-" + strconv.FormatInt(s.id(), 10)
	s.tokens[token] = in.Username
	var user domain.AdminUser
	for _, u := range s.users {
		if u.Username == in.Username {
			user = u
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

func (s *Server) authorized(r *http.Request) bool {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[strings.TrimPrefix(h, "Bearer ")]
	return ok
}

func (s *Server) admin(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 1 && parts[0] == "upload-image" && r.Method == http.MethodPost {
		s.upload(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	if len(parts) >= 2 {
		id, _ = strconv.ParseInt(parts[1], 10, 64)
	}

	switch {
	case len(parts) == 1 && parts[0] == "verify":
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})

	case len(parts) == 1 && parts[0] == "categories" && r.Method == http.MethodGet:
		cats := s.sortedCategories()
		for i := range cats {
			for _, d := range s.dishes {
				if d.CategoryID == cats[i].ID {
					cats[i].DishesCount++
				}
			}
		}
		writeJSON(w, http.StatusOK, cats)
	case len(parts) == 1 && parts[0] == "categories" && r.Method == http.MethodPost:
		var c domain.Category
		if !decode(w, r.Body, &c) {
			return
		}
		c.ID = s.id()
		s.categories[c.ID] = c
		writeJSON(w, http.StatusCreated, c)
	case len(parts) == 2 && parts[0] == "categories" && r.Method == http.MethodPut:
		existing, ok := s.categories[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Категория не найдена"})
			return
		}
		var patch map[string]json.RawMessage
		if !decode(w, r.Body, &patch) {
			return
		}
		merged, _ := json.Marshal(existing)
		var m map[string]json.RawMessage
		_ = json.Unmarshal(merged, &m)
		for k, v := range patch {
			m[k] = v
		}
		merged, _ = json.Marshal(m)
		var updated domain.Category
		_ = json.Unmarshal(merged, &updated)
		updated.ID = id
		s.categories[id] = updated
		writeJSON(w, http.StatusOK, updated)
	case len(parts) == 2 && parts[0] == "categories" && r.Method == http.MethodDelete:
		for _, d := range s.dishes {
			if d.CategoryID == id {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Нельзя удалить категорию, в которой есть блюда"})
				return
			}
		}
		delete(s.categories, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})

	case len(parts) == 1 && parts[0] == "dishes" && r.Method == http.MethodGet:
		dishes := s.sortedDishes()
		for i := range dishes {
			if c, ok := s.categories[dishes[i].CategoryID]; ok {
				dishes[i].CategoryName = c.NameRU
			}
		}
		writeJSON(w, http.StatusOK, dishes)
	case len(parts) == 1 && parts[0] == "dishes" && r.Method == http.MethodPost:
		var d domain.Dish
		if !decode(w, r.Body, &d) {
			return
		}
		d.ID = s.id()
		s.dishes[d.ID] = d
		writeJSON(w, http.StatusCreated, d)
	case len(parts) == 2 && parts[0] == "dishes" && r.Method == http.MethodPut:
		if _, ok := s.dishes[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Блюдо не найдено"})
			return
		}
		var d domain.Dish
		if !decode(w, r.Body, &d) {
			return
		}
		d.ID = id
		s.dishes[id] = d
		writeJSON(w, http.StatusOK, d)
	case len(parts) == 2 && parts[0] == "dishes" && r.Method == http.MethodDelete:
		delete(s.dishes, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	case len(parts) == 3 && parts[0] == "dishes" && parts[2] == "toggle-availability" && r.Method == http.MethodPatch:
		d, ok := s.dishes[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Блюдо не найдено"})
			return
		}
		d.IsAvailable = !d.IsAvailable
		s.dishes[id] = d
		writeJSON(w, http.StatusOK, d)

	case len(parts) == 1 && parts[0] == "reviews" && r.Method == http.MethodGet:
		status := r.URL.Query().Get("status")
		out := []domain.Review{}
		for _, rv := range s.reviews {
			if status == "" || rv.IsApproved.String() == status {
				out = append(out, rv)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	case len(parts) == 2 && parts[0] == "reviews" && r.Method == http.MethodPatch:
		rv, ok := s.reviews[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Отзыв не найден"})
			return
		}
		var in struct {
			IsApproved       domain.ModerationState `json:"is_approved"`
			ModerationReason string                 `json:"moderation_reason"`
		}
		if !decode(w, r.Body, &in) {
			return
		}
		rv.IsApproved = in.IsApproved
		rv.ModerationReason = in.ModerationReason
		s.reviews[id] = rv
		writeJSON(w, http.StatusOK, rv)
	case len(parts) == 2 && parts[0] == "reviews" && r.Method == http.MethodDelete:
		delete(s.reviews, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})

	case len(parts) == 1 && parts[0] == "users" && r.Method == http.MethodGet:
		out := make([]domain.AdminUser, 0, len(s.users))
		for _, u := range s.users {
			out = append(out, u)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	case len(parts) == 1 && parts[0] == "users" && r.Method == http.MethodPost:
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decode(w, r.Body, &in) {
			return
		}
		if _, exists := s.passwords[in.Username]; exists {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Пользователь уже существует"})
			return
		}
		u := domain.AdminUser{ID: s.id(), Username: in.Username, Role: "admin"}
		s.users[u.ID] = u
		s.passwords[in.Username] = in.Password
		writeJSON(w, http.StatusCreated, u)
	case len(parts) == 2 && parts[0] == "users" && r.Method == http.MethodDelete:
		if u, ok := s.users[id]; ok {
			delete(s.passwords, u.Username)
		}
		delete(s.users, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image field required"})
		return
	}
	defer f.Close()
	_, _ = io.Copy(io.Discard, f)

	s.mu.Lock()
	path := "/uploads/" + strconv.FormatInt(s.id(), 10) + "-" + hdr.Filename
	s.uploads = append(s.uploads, path)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": path})
}

func (s *Server) sortedCategories() []domain.Category {
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Server) sortedDishes() []domain.Dish {
	out := make([]domain.Dish, 0, len(s.dishes))
	for _, d := range s.dishes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func decode(w http.ResponseWriter, r io.Reader, v interface{}) bool {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
