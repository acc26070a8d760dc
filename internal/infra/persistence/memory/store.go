// Package memory provides the in-memory transactional store for the library
// domain. It is the canonical implementation of the persistence semantics and
// the substrate the sqlite and postgres stores build upon.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"librarycore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type state struct {
	users     map[int64]domain.User
	books     map[int64]domain.Book
	loans     map[int64]domain.Loan
	sequences map[domain.EntityType]int64
}

// Snapshot is the serialisable representation of the store state. Sequence
// counters are included so IDs stay monotonic across a reload.
type Snapshot struct {
	Users     map[int64]domain.User       `json:"users"`
	Books     map[int64]domain.Book       `json:"books"`
	Loans     map[int64]domain.Loan       `json:"loans"`
	Sequences map[domain.EntityType]int64 `json:"sequences"`
}

func newState() state {
	return state{
		users:     map[int64]domain.User{},
		books:     map[int64]domain.Book{},
		loans:     map[int64]domain.Loan{},
		sequences: map[domain.EntityType]int64{},
	}
}

func (s state) clone() state {
	cloned := newState()
	for k, v := range s.users {
		cloned.users[k] = v
	}
	for k, v := range s.books {
		cloned.books[k] = v
	}
	for k, v := range s.loans {
		cloned.loans[k] = v
	}
	for k, v := range s.sequences {
		cloned.sequences[k] = v
	}
	return cloned
}

func snapshotFromState(s state) Snapshot {
	snap := Snapshot{
		Users:     make(map[int64]domain.User, len(s.users)),
		Books:     make(map[int64]domain.Book, len(s.books)),
		Loans:     make(map[int64]domain.Loan, len(s.loans)),
		Sequences: make(map[domain.EntityType]int64, len(s.sequences)),
	}
	for k, v := range s.users {
		snap.Users[k] = v
	}
	for k, v := range s.books {
		snap.Books[k] = v
	}
	for k, v := range s.loans {
		snap.Loans[k] = v
	}
	for k, v := range s.sequences {
		snap.Sequences[k] = v
	}
	return snap
}

func stateFromSnapshot(snap Snapshot) state {
	st := newState()
	for k, v := range snap.Users {
		st.users[k] = v
	}
	for k, v := range snap.Books {
		st.books[k] = v
	}
	for k, v := range snap.Loans {
		st.loans[k] = v
	}
	for k, v := range snap.Sequences {
		st.sequences[k] = v
	}
	// Older snapshots may predate sequence tracking; rebuild counters from
	// the highest observed IDs so new records never collide.
	for id := range st.users {
		if id > st.sequences[domain.EntityUser] {
			st.sequences[domain.EntityUser] = id
		}
	}
	for id := range st.books {
		if id > st.sequences[domain.EntityBook] {
			st.sequences[domain.EntityBook] = id
		}
	}
	for id := range st.loans {
		if id > st.sequences[domain.EntityLoan] {
			st.sequences[domain.EntityLoan] = id
		}
	}
	return st
}

// Store is a mutex-guarded snapshot store. Transactions operate on a clone of
// the committed state and replace it only when the transactional function
// returns nil, so a failed operation leaves no partial writes behind.
type Store struct {
	mu    sync.RWMutex
	state state
	nowFn func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state: newState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// Transaction applies a mutation set to a cloned state.
type Transaction struct {
	state *state
	now   time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

func (tx *Transaction) nextID(entity domain.EntityType) int64 {
	tx.state.sequences[entity]++
	return tx.state.sequences[entity]
}

// view adapts a state to the read-only TransactionView contract.
type view struct {
	state *state
}

var _ domain.TransactionView = view{}

// RunInTransaction executes fn within a transactional copy of the store state
// and commits the copy when fn returns nil.
func (s *Store) RunInTransaction(_ context.Context, fn func(domain.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloned := s.state.clone()
	tx := &Transaction{state: &cloned, now: s.nowFn()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = cloned
	return nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// ExportState returns a serialisable copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the committed state with the supplied snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snap)
}

// CreateUser stores a new user, assigning its ID.
func (tx *Transaction) CreateUser(u domain.User) (domain.User, error) {
	if u.ID == 0 {
		u.ID = tx.nextID(domain.EntityUser)
	} else if _, exists := tx.state.users[u.ID]; exists {
		return domain.User{}, duplicateErr(domain.EntityUser, u.ID)
	}
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = u
	return u, nil
}

// UpdateUser mutates a user using the provided mutator function.
func (tx *Transaction) UpdateUser(id int64, mutator func(*domain.User) error) (domain.User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	if err := mutator(&current); err != nil {
		return domain.User{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.users[id] = current
	return current, nil
}

// DeleteUser removes a user record.
func (tx *Transaction) DeleteUser(id int64) error {
	if _, ok := tx.state.users[id]; !ok {
		return domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	delete(tx.state.users, id)
	return nil
}

// CreateBook stores a new book, assigning its ID.
func (tx *Transaction) CreateBook(b domain.Book) (domain.Book, error) {
	if b.ID == 0 {
		b.ID = tx.nextID(domain.EntityBook)
	} else if _, exists := tx.state.books[b.ID]; exists {
		return domain.Book{}, duplicateErr(domain.EntityBook, b.ID)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.books[b.ID] = b
	return b, nil
}

// UpdateBook mutates a book using the provided mutator function.
func (tx *Transaction) UpdateBook(id int64, mutator func(*domain.Book) error) (domain.Book, error) {
	current, ok := tx.state.books[id]
	if !ok {
		return domain.Book{}, domain.NotFoundError{Entity: domain.EntityBook, ID: id}
	}
	if err := mutator(&current); err != nil {
		return domain.Book{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.books[id] = current
	return current, nil
}

// DeleteBook removes a book record.
func (tx *Transaction) DeleteBook(id int64) error {
	if _, ok := tx.state.books[id]; !ok {
		return domain.NotFoundError{Entity: domain.EntityBook, ID: id}
	}
	delete(tx.state.books, id)
	return nil
}

// CreateLoan stores a new loan, assigning its ID.
func (tx *Transaction) CreateLoan(l domain.Loan) (domain.Loan, error) {
	if l.ID == 0 {
		l.ID = tx.nextID(domain.EntityLoan)
	} else if _, exists := tx.state.loans[l.ID]; exists {
		return domain.Loan{}, duplicateErr(domain.EntityLoan, l.ID)
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.loans[l.ID] = l
	return l, nil
}

// UpdateLoan mutates a loan using the provided mutator function.
func (tx *Transaction) UpdateLoan(id int64, mutator func(*domain.Loan) error) (domain.Loan, error) {
	current, ok := tx.state.loans[id]
	if !ok {
		return domain.Loan{}, domain.NotFoundError{Entity: domain.EntityLoan, ID: id}
	}
	if err := mutator(&current); err != nil {
		return domain.Loan{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.loans[id] = current
	return current, nil
}

// DeleteLoan removes a loan record.
func (tx *Transaction) DeleteLoan(id int64) error {
	if _, ok := tx.state.loans[id]; !ok {
		return domain.NotFoundError{Entity: domain.EntityLoan, ID: id}
	}
	delete(tx.state.loans, id)
	return nil
}

// FindUser retrieves a user by ID from the transactional state.
func (tx *Transaction) FindUser(id int64) (domain.User, bool) {
	u, ok := tx.state.users[id]
	return u, ok
}

// FindBook retrieves a book by ID from the transactional state.
func (tx *Transaction) FindBook(id int64) (domain.Book, bool) {
	b, ok := tx.state.books[id]
	return b, ok
}

// FindLoan retrieves a loan by ID from the transactional state.
func (tx *Transaction) FindLoan(id int64) (domain.Loan, bool) {
	l, ok := tx.state.loans[id]
	return l, ok
}

func (v view) ListUsers() []domain.User {
	out := make([]domain.User, 0, len(v.state.users))
	for _, u := range v.state.users {
		out = append(out, u)
	}
	return out
}

func (v view) ListBooks() []domain.Book {
	out := make([]domain.Book, 0, len(v.state.books))
	for _, b := range v.state.books {
		out = append(out, b)
	}
	return out
}

func (v view) ListLoans() []domain.Loan {
	out := make([]domain.Loan, 0, len(v.state.loans))
	for _, l := range v.state.loans {
		out = append(out, l)
	}
	return out
}

func (v view) FindUser(id int64) (domain.User, bool) {
	u, ok := v.state.users[id]
	return u, ok
}

func (v view) FindBook(id int64) (domain.Book, bool) {
	b, ok := v.state.books[id]
	return b, ok
}

func (v view) FindLoan(id int64) (domain.Loan, bool) {
	l, ok := v.state.loans[id]
	return l, ok
}

// Read helpers ---------------------------------------------------------------

// GetUser retrieves a user by ID from committed state.
func (s *Store) GetUser(id int64) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[id]
	return u, ok
}

// ListUsers returns all users from committed state.
func (s *Store) ListUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.state.users))
	for _, u := range s.state.users {
		out = append(out, u)
	}
	return out
}

// GetBook retrieves a book by ID from committed state.
func (s *Store) GetBook(id int64) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.books[id]
	return b, ok
}

// ListBooks returns all books from committed state.
func (s *Store) ListBooks() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Book, 0, len(s.state.books))
	for _, b := range s.state.books {
		out = append(out, b)
	}
	return out
}

// GetLoan retrieves a loan by ID from committed state.
func (s *Store) GetLoan(id int64) (domain.Loan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.loans[id]
	return l, ok
}

// ListLoans returns all loans from committed state.
func (s *Store) ListLoans() []domain.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Loan, 0, len(s.state.loans))
	for _, l := range s.state.loans {
		out = append(out, l)
	}
	return out
}

func duplicateErr(entity domain.EntityType, id int64) error {
	return fmt.Errorf("%s %d already exists", entity, id)
}
