package smoke

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// stubFlaws lets individual tests break the stub services to verify the
// runner reports the breakage instead of passing silently.
type stubFlaws struct {
	// skipRestoreOnCancel makes cancellation keep the stock reservation.
	skipRestoreOnCancel bool
	// allowTerminalTransitions accepts any status change, ignoring the
	// state machine.
	allowTerminalTransitions bool
}

type stubUser struct {
	User
	password string
}

type stubOrder struct {
	Order
}

// stubEnv is an in-memory rendition of the three services sharing one state,
// served over three httptest servers.
type stubEnv struct {
	mu     sync.Mutex
	nextID int

	users    map[string]*stubUser
	products map[string]*Product
	orders   map[string]*stubOrder

	flaws stubFlaws

	userServer    *httptest.Server
	productServer *httptest.Server
	orderServer   *httptest.Server
}

func newStubEnv(t *testing.T) *stubEnv {
	t.Helper()
	env := &stubEnv{
		users:    make(map[string]*stubUser),
		products: make(map[string]*Product),
		orders:   make(map[string]*stubOrder),
	}

	env.userServer = httptest.NewServer(env.userRouter())
	env.productServer = httptest.NewServer(env.productRouter())
	env.orderServer = httptest.NewServer(env.orderRouter())
	t.Cleanup(env.userServer.Close)
	t.Cleanup(env.productServer.Close)
	t.Cleanup(env.orderServer.Close)

	return env
}

func (e *stubEnv) id(prefix string) string {
	e.nextID++
	return fmt.Sprintf("%s-%d", prefix, e.nextID)
}

func stubWriteData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func stubWriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func (e *stubEnv) userRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/users", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		u := &stubUser{
			User:     User{ID: e.id("u"), Username: body.Username, Email: body.Email},
			password: body.Password,
		}
		e.users[u.ID] = u
		stubWriteData(w, http.StatusCreated, u.User)
	})

	r.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		u, ok := e.users[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		stubWriteData(w, http.StatusOK, u.User)
	})

	r.Put("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username *string `json:"username"`
			Email    *string `json:"email"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		u, ok := e.users[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		if body.Username != nil {
			u.Username = *body.Username
		}
		if body.Email != nil {
			u.Email = *body.Email
		}
		stubWriteData(w, http.StatusOK, u.User)
	})

	r.Delete("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		id := chi.URLParam(req, "id")
		if _, ok := e.users[id]; !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		delete(e.users, id)
		stubWriteData(w, http.StatusOK, map[string]string{"message": "user deleted"})
	})

	r.Post("/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		for _, u := range e.users {
			if u.Email == body.Email && u.password == body.Password {
				stubWriteData(w, http.StatusOK, map[string]string{"message": "login successful", "user_id": u.ID, "token": "stub-token-" + u.ID})
				return
			}
		}
		stubWriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password")
	})

	return r
}

func (e *stubEnv) productRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/products", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       int64  `json:"price"`
			Stock       int    `json:"stock_quantity"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		p := &Product{
			ID:          e.id("p"),
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			Stock:       body.Stock,
		}
		e.products[p.ID] = p
		stubWriteData(w, http.StatusCreated, p)
	})

	r.Get("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		p, ok := e.products[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
			return
		}
		stubWriteData(w, http.StatusOK, p)
	})

	r.Put("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
			Price       *int64  `json:"price"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		p, ok := e.products[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
			return
		}
		if body.Name != nil {
			p.Name = *body.Name
		}
		if body.Description != nil {
			p.Description = *body.Description
		}
		if body.Price != nil {
			p.Price = *body.Price
		}
		stubWriteData(w, http.StatusOK, p)
	})

	r.Patch("/products/{id}/stock", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			QuantityChange int `json:"quantity_change"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		p, ok := e.products[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
			return
		}
		if p.Stock+body.QuantityChange < 0 {
			stubWriteError(w, http.StatusBadRequest, "INSUFFICIENT_STOCK", "insufficient stock")
			return
		}
		p.Stock += body.QuantityChange
		stubWriteData(w, http.StatusOK, p)
	})

	r.Delete("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		id := chi.URLParam(req, "id")
		if _, ok := e.products[id]; !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
			return
		}
		delete(e.products, id)
		stubWriteData(w, http.StatusOK, map[string]string{"message": "product deleted"})
	})

	return r
}

var stubTransitions = map[string][]string{
	"pending":   {"confirmed", "cancelled"},
	"confirmed": {"shipped"},
	"shipped":   {},
	"cancelled": {},
}

func stubCanTransition(from, to string) bool {
	for _, allowed := range stubTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (e *stubEnv) orderRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/orders", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			UserID    string `json:"user_id"`
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.users[body.UserID]; !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		p, ok := e.products[body.ProductID]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
			return
		}
		if body.Quantity <= 0 {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", "quantity must be positive")
			return
		}
		if p.Stock < body.Quantity {
			stubWriteError(w, http.StatusBadRequest, "INSUFFICIENT_STOCK", "insufficient stock")
			return
		}

		p.Stock -= body.Quantity
		o := &stubOrder{Order: Order{
			ID:         e.id("o"),
			UserID:     body.UserID,
			ProductID:  body.ProductID,
			Quantity:   body.Quantity,
			TotalPrice: p.Price * int64(body.Quantity),
			Status:     "pending",
		}}
		e.orders[o.ID] = o
		stubWriteData(w, http.StatusCreated, o.Order)
	})

	r.Get("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		o, ok := e.orders[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		stubWriteData(w, http.StatusOK, o.Order)
	})

	updateStatus := func(w http.ResponseWriter, req *http.Request, target string) {
		e.mu.Lock()
		defer e.mu.Unlock()
		o, ok := e.orders[chi.URLParam(req, "id")]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		if !e.flaws.allowTerminalTransitions && !stubCanTransition(o.Status, target) {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT",
				fmt.Sprintf("cannot transition order from %q to %q", o.Status, target))
			return
		}
		if target == "cancelled" && !e.flaws.skipRestoreOnCancel {
			if p, ok := e.products[o.ProductID]; ok {
				p.Stock += o.Quantity
			}
		}
		o.Status = target
		stubWriteData(w, http.StatusOK, o.Order)
	}

	r.Put("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		if _, ok := stubTransitions[body.Status]; !ok {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid order status")
			return
		}
		updateStatus(w, req, body.Status)
	})

	r.Post("/orders/{id}/confirm", func(w http.ResponseWriter, req *http.Request) {
		updateStatus(w, req, "confirmed")
	})

	r.Delete("/orders/{id}", func(w http.ResponseWriter, req *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		id := chi.URLParam(req, "id")
		o, ok := e.orders[id]
		if !ok {
			stubWriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		if o.Status != "pending" && o.Status != "cancelled" {
			stubWriteError(w, http.StatusBadRequest, "INVALID_INPUT", "cannot delete order in status "+o.Status)
			return
		}
		if o.Status == "pending" {
			if p, ok := e.products[o.ProductID]; ok {
				p.Stock += o.Quantity
			}
		}
		delete(e.orders, id)
		stubWriteData(w, http.StatusOK, map[string]string{"message": "order deleted"})
	})

	return r
}
