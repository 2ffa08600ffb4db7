package main

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryDB keeps every table in maps guarded by one lock. It enforces the
// same unique keys, foreign keys and cascades as the SQL schema.
type memoryDB struct {
	mu        sync.RWMutex
	seq       uint64
	order     map[string]uint64
	users     map[string]user
	todoLists map[string]todoList
	projects  map[string]project
	members   map[string]projectUser
	tasks     map[string]task
	todos     map[string]todo
}

func newMemoryStorage() *storage {
	db := &memoryDB{
		order:     make(map[string]uint64),
		users:     make(map[string]user),
		todoLists: make(map[string]todoList),
		projects:  make(map[string]project),
		members:   make(map[string]projectUser),
		tasks:     make(map[string]task),
		todos:     make(map[string]todo),
	}
	return &storage{
		users:     memUsers{db},
		todoLists: memTodoLists{db},
		projects:  memProjects{db},
		members:   memMembers{db},
		tasks:     memTasks{db},
		todos:     memTodos{db},
		ping:      func(context.Context) error { return nil },
		close:     func() error { return nil },
	}
}

func (db *memoryDB) stamp(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
	db.seq++
	db.order[*id] = db.seq
}

func (db *memoryDB) unstamp(id string) {
	delete(db.order, id)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// page sorts items by insertion order and applies the pagination window.
func page[T any](db *memoryDB, items []*T, id func(*T) string, p pagination) []*T {
	slices.SortFunc(items, func(a, b *T) int {
		oa, ob := db.order[id(a)], db.order[id(b)]
		switch {
		case oa < ob:
			return -1
		case oa > ob:
			return 1
		}
		return 0
	})
	from, to := p.window(len(items))
	return items[from:to]
}

type memUsers struct{ db *memoryDB }

func cloneUser(u user) *user {
	u.PasswordHash = slices.Clone(u.PasswordHash)
	return &u
}

func (m memUsers) insert(_ context.Context, u *user) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, existing := range m.db.users {
		if existing.Email == u.Email {
			return errDuplicateEmail
		}
	}
	m.db.stamp(&u.ID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	u.Version = 1
	m.db.users[u.ID] = *cloneUser(*u)
	return nil
}

func (m memUsers) getByID(_ context.Context, id string) (*user, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	u, ok := m.db.users[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return cloneUser(u), nil
}

func (m memUsers) getByEmail(_ context.Context, email string) (*user, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	for _, u := range m.db.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, errRecordNotFound
}

func (m memUsers) list(_ context.Context, f userFilter) ([]*user, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	users := []*user{}
	for _, u := range m.db.users {
		users = append(users, cloneUser(u))
	}
	return page(m.db, users, func(u *user) string { return u.ID }, f.pagination), nil
}

func (m memUsers) update(_ context.Context, u *user) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	current, ok := m.db.users[u.ID]
	if !ok || current.Version != u.Version {
		return errEditConflict
	}
	for id, existing := range m.db.users {
		if id != u.ID && existing.Email == u.Email {
			return errDuplicateEmail
		}
	}
	u.Version++
	u.UpdatedAt = time.Now()
	m.db.users[u.ID] = *cloneUser(*u)
	return nil
}

func (m memUsers) delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[id]; !ok {
		return errRecordNotFound
	}
	delete(m.db.users, id)
	m.db.unstamp(id)
	for mid, pu := range m.db.members {
		if pu.UserID == id {
			delete(m.db.members, mid)
			m.db.unstamp(mid)
		}
	}
	for tid, t := range m.db.tasks {
		if t.UserID == id {
			m.db.removeTask(tid)
		}
	}
	for tid, t := range m.db.tasks {
		if t.CreatedBy != nil && *t.CreatedBy == id {
			t.CreatedBy = nil
			m.db.tasks[tid] = t
		}
	}
	for tid, t := range m.db.todos {
		if t.UserID != nil && *t.UserID == id {
			m.db.removeTodo(tid)
		}
	}
	return nil
}

type memTodoLists struct{ db *memoryDB }

func (m memTodoLists) insert(_ context.Context, l *todoList) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.stamp(&l.ID)
	l.CreatedAt = time.Now()
	m.db.todoLists[l.ID] = *l
	return nil
}

func (m memTodoLists) getByID(_ context.Context, id string) (*todoList, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	l, ok := m.db.todoLists[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return &l, nil
}

func (m memTodoLists) list(_ context.Context, p pagination) ([]*todoList, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	lists := []*todoList{}
	for _, l := range m.db.todoLists {
		lists = append(lists, &l)
	}
	return page(m.db, lists, func(l *todoList) string { return l.ID }, p), nil
}

func (m memTodoLists) delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.todoLists[id]; !ok {
		return errRecordNotFound
	}
	delete(m.db.todoLists, id)
	m.db.unstamp(id)
	for pid, p := range m.db.projects {
		if p.TodoListID != nil && *p.TodoListID == id {
			p.TodoListID = nil
			m.db.projects[pid] = p
		}
	}
	return nil
}

type memProjects struct{ db *memoryDB }

func cloneProject(p project) *project {
	p.TodoListID = clonePtr(p.TodoListID)
	return &p
}

func (m memProjects) matches(f projectFilter, p *project) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.MemberID != "" && !m.db.isMember(p.ID, f.MemberID) {
		return false
	}
	if f.TodoListID != "" && (p.TodoListID == nil || *p.TodoListID != f.TodoListID) {
		return false
	}
	if !f.IncludeDeleted && p.IsDeleted {
		return false
	}
	return true
}

func (db *memoryDB) isMember(projectID, userID string) bool {
	for _, pu := range db.members {
		if pu.ProjectID == projectID && pu.UserID == userID {
			return true
		}
	}
	return false
}

func (m memProjects) titleTaken(id, title string) bool {
	for pid, p := range m.db.projects {
		if pid != id && p.Title == title {
			return true
		}
	}
	return false
}

func (m memProjects) insert(_ context.Context, p *project) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.titleTaken("", p.Title) {
		return errDuplicateTitle
	}
	if p.TodoListID != nil {
		if _, ok := m.db.todoLists[*p.TodoListID]; !ok {
			return errRecordNotFound
		}
	}
	m.db.stamp(&p.ID)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	p.Version = 1
	m.db.projects[p.ID] = *cloneProject(*p)
	return nil
}

func (m memProjects) getByID(_ context.Context, id string) (*project, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	p, ok := m.db.projects[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return cloneProject(p), nil
}

func (m memProjects) list(_ context.Context, f projectFilter) ([]*project, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	projects := []*project{}
	for _, p := range m.db.projects {
		if m.matches(f, &p) {
			projects = append(projects, cloneProject(p))
		}
	}
	return page(m.db, projects, func(p *project) string { return p.ID }, f.pagination), nil
}

func (m memProjects) update(_ context.Context, p *project) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	current, ok := m.db.projects[p.ID]
	if !ok || current.Version != p.Version {
		return errEditConflict
	}
	if m.titleTaken(p.ID, p.Title) {
		return errDuplicateTitle
	}
	if p.TodoListID != nil {
		if _, ok := m.db.todoLists[*p.TodoListID]; !ok {
			return errRecordNotFound
		}
	}
	p.Version++
	p.UpdatedAt = time.Now()
	m.db.projects[p.ID] = *cloneProject(*p)
	return nil
}

func (m memProjects) delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.projects[id]; !ok {
		return errRecordNotFound
	}
	m.db.removeProject(id)
	return nil
}

func (db *memoryDB) removeProject(id string) {
	delete(db.projects, id)
	db.unstamp(id)
	for mid, pu := range db.members {
		if pu.ProjectID == id {
			delete(db.members, mid)
			db.unstamp(mid)
		}
	}
	for tid, t := range db.tasks {
		if t.ProjectID != nil && *t.ProjectID == id {
			db.removeTask(tid)
		}
	}
	for tid, t := range db.todos {
		if t.ProjectID != nil && *t.ProjectID == id {
			db.removeTodo(tid)
		}
	}
}

func (m memProjects) updateMany(_ context.Context, f projectFilter, patch projectPatch) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, p := range m.db.projects {
		if !m.matches(f, &p) {
			continue
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}
		p.Version++
		p.UpdatedAt = time.Now()
		m.db.projects[id] = p
		n++
	}
	return n, nil
}

func (m memProjects) deleteMany(_ context.Context, f projectFilter) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, p := range m.db.projects {
		if m.matches(f, &p) {
			m.db.removeProject(id)
			n++
		}
	}
	return n, nil
}

type memMembers struct{ db *memoryDB }

func (m memMembers) insert(_ context.Context, pu *projectUser) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.projects[pu.ProjectID]; !ok {
		return errRecordNotFound
	}
	if _, ok := m.db.users[pu.UserID]; !ok {
		return errRecordNotFound
	}
	if m.db.isMember(pu.ProjectID, pu.UserID) {
		return errDuplicateMember
	}
	m.db.stamp(&pu.ID)
	pu.CreatedAt = time.Now()
	pu.UpdatedAt = pu.CreatedAt
	m.db.members[pu.ID] = *pu
	return nil
}

func (m memMembers) getByID(_ context.Context, id string) (*projectUser, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	pu, ok := m.db.members[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return &pu, nil
}

func (m memMembers) get(_ context.Context, projectID, userID string) (*projectUser, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	for _, pu := range m.db.members {
		if pu.ProjectID == projectID && pu.UserID == userID {
			return &pu, nil
		}
	}
	return nil, errRecordNotFound
}

func (m memMembers) listByProject(_ context.Context, projectID string) ([]*projectUser, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	members := []*projectUser{}
	for _, pu := range m.db.members {
		if pu.ProjectID == projectID {
			members = append(members, &pu)
		}
	}
	return page(m.db, members, func(pu *projectUser) string { return pu.ID }, pagination{}), nil
}

func (m memMembers) delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.members[id]; !ok {
		return errRecordNotFound
	}
	delete(m.db.members, id)
	m.db.unstamp(id)
	return nil
}

type memTasks struct{ db *memoryDB }

func cloneTask(t task) *task {
	t.DueDate = clonePtr(t.DueDate)
	t.CreatedBy = clonePtr(t.CreatedBy)
	t.ProjectID = clonePtr(t.ProjectID)
	t.ParentID = clonePtr(t.ParentID)
	return &t
}

func eqPtr(p *string, v string) bool {
	return p != nil && *p == v
}

func (f taskFilter) matches(t *task) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if f.ProjectID != "" && !eqPtr(t.ProjectID, f.ProjectID) {
		return false
	}
	if f.ParentID != "" && !eqPtr(t.ParentID, f.ParentID) {
		return false
	}
	if f.VisibleTo != "" && t.UserID != f.VisibleTo && !eqPtr(t.CreatedBy, f.VisibleTo) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.IsDone != nil && t.IsDone != *f.IsDone {
		return false
	}
	if !f.IncludeDeleted && t.IsDeleted {
		return false
	}
	return true
}

func (db *memoryDB) checkTaskRefs(t *task) error {
	if _, ok := db.users[t.UserID]; !ok {
		return errRecordNotFound
	}
	if t.ProjectID != nil {
		if _, ok := db.projects[*t.ProjectID]; !ok {
			return errRecordNotFound
		}
	}
	if t.ParentID != nil {
		if _, ok := db.tasks[*t.ParentID]; !ok {
			return errRecordNotFound
		}
	}
	return nil
}

func (db *memoryDB) taskTitleTaken(id, title string) bool {
	for tid, t := range db.tasks {
		if tid != id && t.Title == title {
			return true
		}
	}
	return false
}

func (db *memoryDB) removeTask(id string) {
	delete(db.tasks, id)
	db.unstamp(id)
	for tid, t := range db.tasks {
		if eqPtr(t.ParentID, id) {
			t.ParentID = nil
			db.tasks[tid] = t
		}
	}
}

func (m memTasks) insert(_ context.Context, t *task) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.taskTitleTaken("", t.Title) {
		return errDuplicateTitle
	}
	if err := m.db.checkTaskRefs(t); err != nil {
		return err
	}
	m.db.stamp(&t.ID)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	t.Version = 1
	m.db.tasks[t.ID] = *cloneTask(*t)
	return nil
}

func (m memTasks) getByID(_ context.Context, id string) (*task, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	t, ok := m.db.tasks[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return cloneTask(t), nil
}

func (m memTasks) list(_ context.Context, f taskFilter) ([]*task, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	tasks := []*task{}
	for _, t := range m.db.tasks {
		if f.matches(&t) {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return page(m.db, tasks, func(t *task) string { return t.ID }, f.pagination), nil
}

func (m memTasks) update(_ context.Context, t *task) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	current, ok := m.db.tasks[t.ID]
	if !ok || current.Version != t.Version {
		return errEditConflict
	}
	if m.db.taskTitleTaken(t.ID, t.Title) {
		return errDuplicateTitle
	}
	if err := m.db.checkTaskRefs(t); err != nil {
		return err
	}
	t.Version++
	t.UpdatedAt = time.Now()
	m.db.tasks[t.ID] = *cloneTask(*t)
	return nil
}

func (m memTasks) delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.tasks[id]; !ok {
		return errRecordNotFound
	}
	m.db.removeTask(id)
	return nil
}

func (m memTasks) deleteMany(_ context.Context, f taskFilter) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var ids []string
	for id, t := range m.db.tasks {
		if f.matches(&t) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		m.db.removeTask(id)
	}
	return int64(len(ids)), nil
}

type memTodos struct{ db *memoryDB }

func cloneTodo(t todo) *todo {
	t.ProjectID = clonePtr(t.ProjectID)
	t.UserID = clonePtr(t.UserID)
	t.ParentID = clonePtr(t.ParentID)
	return &t
}

func (f todoFilter) matches(t *todo) bool {
	if f.UserID != "" && !eqPtr(t.UserID, f.UserID) {
		return false
	}
	if f.ProjectID != "" && !eqPtr(t.ProjectID, f.ProjectID) {
		return false
	}
	if f.ParentID != "" && !eqPtr(t.ParentID, f.ParentID) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.IsDone != nil && t.IsDone != *f.IsDone {
		return false
	}
	return true
}

func (db *memoryDB) checkTodoRefs(t *todo) error {
	if t.UserID != nil {
		if _, ok := db.users[*t.UserID]; !ok {
			return errRecordNotFound
		}
	}
	if t.ProjectID != nil {
		if _, ok := db.projects[*t.ProjectID]; !ok {
			return errRecordNotFound
		}
	}
	if t.ParentID != nil {
		if _, ok := db.todos[*t.ParentID]; !ok {
			return errRecordNotFound
		}
	}
	return nil
}

func (db *memoryDB) removeTodo(id string) {
	delete(db.todos, id)
	db.unstamp(id)
	for tid, t := range db.todos {
		if eqPtr(t.ParentID, id) {
			t.ParentID = nil
			db.todos[tid] = t
		}
	}
}

func (m memTodos) insert(_ context.Context, t *todo) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.checkTodoRefs(t); err != nil {
		return err
	}
	m.db.stamp(&t.ID)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	t.Version = 1
	m.db.todos[t.ID] = *cloneTodo(*t)
	return nil
}

func (m memTodos) getByID(_ context.Context, id string) (*todo, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	t, ok := m.db.todos[id]
	if !ok {
		return nil, errRecordNotFound
	}
	return cloneTodo(t), nil
}

func (m memTodos) list(_ context.Context, f todoFilter) ([]*todo, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	todos := []*todo{}
	for _, t := range m.db.todos {
		if f.matches(&t) {
			todos = append(todos, cloneTodo(t))
		}
	}
	return page(m.db, todos, func(t *todo) string { return t.ID }, f.pagination), nil
}

func (m memTodos) update(_ context.Context, t *todo) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	current, ok := m.db.todos[t.ID]
	if !ok || current.Version != t.Version {
		return errEditConflict
	}
	if err := m.db.checkTodoRefs(t); err != nil {
		return err
	}
	t.Version++
	t.UpdatedAt = time.Now()
	m.db.todos[t.ID] = *cloneTodo(*t)
	return nil
}

func (m memTodos) delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.todos[id]; !ok {
		return errRecordNotFound
	}
	m.db.removeTodo(id)
	return nil
}

func (m memTodos) updateMany(_ context.Context, f todoFilter, patch todoPatch) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, t := range m.db.todos {
		if !f.matches(&t) {
			continue
		}
		patch.apply(&t)
		t.Version++
		t.UpdatedAt = time.Now()
		m.db.todos[id] = t
		n++
	}
	return n, nil
}

func (m memTodos) deleteMany(_ context.Context, f todoFilter) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var ids []string
	for id, t := range m.db.todos {
		if f.matches(&t) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		m.db.removeTodo(id)
	}
	return int64(len(ids)), nil
}
