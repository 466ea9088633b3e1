// Package fakebackend serves an in-memory board backend for tests.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
)

// Person is the wire shape of a user.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Card is the wire shape of a card.
type Card struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     any    `json:"dueDate,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CreatedBy   Person `json:"createdBy"`
}

// List is the wire shape of a list.
type List struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Board string `json:"board"`
	Cards []Card `json:"cards"`
}

// Board is the wire shape of a board.
type Board struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       Person   `json:"owner"`
	Members     []Person `json:"members"`
	Lists       []List   `json:"lists"`
}

// Request records one handled call.
type Request struct {
	Method    string
	Path      string
	Auth      string
	RequestID string
	Body      map[string]any
}

// Failure is an injected error response.
type Failure struct {
	Status  int
	Message string
}

// Backend is a router plus state. Use New to start it.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	boards   []Board
	recs     map[string][]map[string]any
	failures map[string]Failure
	requests []Request
	nextID   int
}

// New starts a backend seeded with boards. Close it when done.
func New(boards ...Board) *Backend {
	b := &Backend{
		boards:   boards,
		recs:     map[string][]map[string]any{},
		failures: map[string]Failure{},
	}
	r := mux.NewRouter()
	r.HandleFunc("/boards", b.listBoards).Methods(http.MethodGet)
	r.HandleFunc("/boards", b.createBoard).Methods(http.MethodPost)
	r.HandleFunc("/boards/cards/{cardId}/move", b.moveCard).Methods(http.MethodPatch)
	r.HandleFunc("/boards/cards/{cardId}", b.updateCard).Methods(http.MethodPatch)
	r.HandleFunc("/boards/{boardId}", b.getBoard).Methods(http.MethodGet)
	r.HandleFunc("/boards/{boardId}/lists", b.createList).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardId}/lists/{listId}/cards", b.createCard).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardId}/invite", b.invite).Methods(http.MethodPost)
	r.HandleFunc("/boards/{boardId}/recommendations", b.recommendations).Methods(http.MethodGet)
	b.Server = httptest.NewServer(r)
	return b
}

// Fail makes every request to the named route answer with f. Route names
// are list_boards, create_board, get_board, create_list, create_card,
// update_card, move_card, invite and recommendations.
func (b *Backend) Fail(route string, f Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = f
}

// Recover removes an injected failure.
func (b *Backend) Recover(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

// SetRecommendations seeds the recommendations for a board.
func (b *Backend) SetRecommendations(boardID string, recs []map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs[boardID] = recs
}

// Requests returns the handled calls in order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// LastRequest returns the most recent call.
func (b *Backend) LastRequest() Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}
	}
	return b.requests[len(b.requests)-1]
}

// Board returns the current server copy of a board.
func (b *Backend) Board(id string) (Board, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.boardIndex(id)
	if i < 0 {
		return Board{}, false
	}
	return b.boards[i], true
}

func (b *Backend) record(r *http.Request) map[string]any {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	b.requests = append(b.requests, Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      body,
	})
	return body
}

func (b *Backend) failed(w http.ResponseWriter, route string) bool {
	f, ok := b.failures[route]
	if !ok {
		return false
	}
	writeJSON(w, f.Status, map[string]string{"message": f.Message})
	return true
}

func (b *Backend) boardIndex(id string) int {
	return slices.IndexFunc(b.boards, func(x Board) bool { return x.ID == id })
}

func (b *Backend) newID(prefix string) string {
	b.nextID++
	return prefix + strconv.Itoa(b.nextID)
}

func (b *Backend) listBoards(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(r)
	if b.failed(w, "list_boards") {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": b.boards})
}

func (b *Backend) createBoard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := b.record(r)
	if b.failed(w, "create_board") {
		return
	}
	board := Board{ID: b.newID("board"), Name: str(body["name"]), Description: str(body["description"])}
	b.boards = append(b.boards, board)
	writeJSON(w, http.StatusCreated, map[string]any{"board": board})
}

func (b *Backend) getBoard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(r)
	if b.failed(w, "get_board") {
		return
	}
	i := b.boardIndex(mux.Vars(r)["boardId"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Board not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board": b.boards[i]})
}

func (b *Backend) createList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := b.record(r)
	if b.failed(w, "create_list") {
		return
	}
	boardID := mux.Vars(r)["boardId"]
	i := b.boardIndex(boardID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Board not found"})
		return
	}
	list := List{ID: b.newID("list"), Name: str(body["name"]), Board: boardID}
	b.boards[i].Lists = append(b.boards[i].Lists, list)
	writeJSON(w, http.StatusCreated, map[string]any{"list": list})
}

func (b *Backend) createCard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := b.record(r)
	if b.failed(w, "create_card") {
		return
	}
	vars := mux.Vars(r)
	bi := b.boardIndex(vars["boardId"])
	if bi < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Board not found"})
		return
	}
	li := slices.IndexFunc(b.boards[bi].Lists, func(l List) bool { return l.ID == vars["listId"] })
	if li < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "List not found"})
		return
	}
	card := Card{
		ID:          b.newID("card"),
		Title:       str(body["title"]),
		Description: str(body["description"]),
		Priority:    str(body["priority"]),
		Status:      str(body["status"]),
	}
	if due := str(body["dueDate"]); due != "" {
		card.DueDate = due
	}
	b.boards[bi].Lists[li].Cards = append(b.boards[bi].Lists[li].Cards, card)
	writeJSON(w, http.StatusCreated, map[string]any{"card": card})
}

func (b *Backend) findCard(id string) (int, int, int) {
	for bi, board := range b.boards {
		for li, list := range board.Lists {
			if ci := slices.IndexFunc(list.Cards, func(c Card) bool { return c.ID == id }); ci >= 0 {
				return bi, li, ci
			}
		}
	}
	return -1, -1, -1
}

func (b *Backend) updateCard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := b.record(r)
	if b.failed(w, "update_card") {
		return
	}
	bi, li, ci := b.findCard(mux.Vars(r)["cardId"])
	if bi < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Card not found"})
		return
	}
	card := &b.boards[bi].Lists[li].Cards[ci]
	card.Title = str(body["title"])
	card.Description = str(body["description"])
	card.Priority = str(body["priority"])
	card.Status = str(body["status"])
	if due, ok := body["dueDate"]; ok {
		card.DueDate = due
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": *card})
}

func (b *Backend) moveCard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := b.record(r)
	if b.failed(w, "move_card") {
		return
	}
	bi, li, ci := b.findCard(mux.Vars(r)["cardId"])
	if bi < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Card not found"})
		return
	}
	dst := slices.IndexFunc(b.boards[bi].Lists, func(l List) bool { return l.ID == str(body["newListId"]) })
	if dst < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "List not found"})
		return
	}
	card := b.boards[bi].Lists[li].Cards[ci]
	b.boards[bi].Lists[li].Cards = slices.Delete(b.boards[bi].Lists[li].Cards, ci, ci+1)
	pos, _ := body["position"].(float64)
	cards := b.boards[bi].Lists[dst].Cards
	at := max(0, min(int(pos), len(cards)))
	b.boards[bi].Lists[dst].Cards = slices.Insert(cards, at, card)
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

func (b *Backend) invite(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := b.record(r)
	if b.failed(w, "invite") {
		return
	}
	i := b.boardIndex(mux.Vars(r)["boardId"])
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Board not found"})
		return
	}
	email := str(body["email"])
	b.boards[i].Members = append(b.boards[i].Members, Person{Email: email})
	writeJSON(w, http.StatusOK, map[string]any{"message": "invited"})
}

func (b *Backend) recommendations(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(r)
	if b.failed(w, "recommendations") {
		return
	}
	recs := b.recs[mux.Vars(r)["boardId"]]
	if recs == nil {
		recs = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
