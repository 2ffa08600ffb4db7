package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskHandler(t *testing.T) {
	app := newTestApplication(t)
	admin := seedUser(t, app, "admin@example.com", roleAdmin)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)
	p := seedProject(t, app, "apollo")
	seedMember(t, app, p, alice, roleAdmin)
	seedMember(t, app, p, bob, roleUser)

	t.Run("Defaults", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "write docs"}, bob)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		got := decode[task](t, rr)
		assert.Equal(t, bob.ID, got.UserID)
		assert.Equal(t, priorityLow, got.Priority)
		assert.Equal(t, statusTodo, got.Status)
		assert.False(t, got.IsCreatedByAdmin)
	})

	t.Run("DuplicateTitle", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "write docs"}, alice)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "x", "status": "done"}, bob)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("UserCannotAssignOthers", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "for alice", "user_id": alice.ID}, bob)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("ProjectAdminAssignsMember", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "for bob", "user_id": bob.ID, "project_id": p.ID}, alice)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("AdminFlagsTask", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "from admin", "user_id": bob.ID}, admin)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		got := decode[task](t, rr)
		assert.True(t, got.IsCreatedByAdmin)
		require.NotNil(t, got.CreatedBy)
		assert.Equal(t, admin.ID, *got.CreatedBy)
	})
}

func TestMemberTasksHandlers(t *testing.T) {
	app := newTestApplication(t)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)
	carol := seedUser(t, app, "carol@example.com", roleUser)
	p := seedProject(t, app, "apollo")
	aliceMember := seedMember(t, app, p, alice, roleAdmin)
	bobMember := seedMember(t, app, p, bob, roleUser)

	t.Run("UserCannotTargetAdmin", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/project-users/"+aliceMember.ID+"/tasks", map[string]string{"title": "t1"}, bob)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = do(t, app, http.MethodGet, "/v1/project-users/"+aliceMember.ID+"/tasks", nil, bob)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("NonMember", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/project-users/"+bobMember.ID+"/tasks", map[string]string{"title": "t2"}, carol)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("ProjectAdminCreates", func(t *testing.T) {
		rr := do(t, app, http.MethodPost, "/v1/project-users/"+bobMember.ID+"/tasks", map[string]string{"title": "t3"}, alice)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		got := decode[task](t, rr)
		assert.Equal(t, bob.ID, got.UserID)
		require.NotNil(t, got.ProjectID)
		assert.Equal(t, p.ID, *got.ProjectID)
		assert.True(t, got.IsCreatedByAdmin)
	})

	t.Run("ReadByProjectAndUser", func(t *testing.T) {
		rr := do(t, app, http.MethodGet, "/v1/tasks/projects/"+p.ID+"/users/"+bob.ID, nil, bob)
		require.Equal(t, http.StatusOK, rr.Code)
		tasks := decode[[]task](t, rr)
		require.Len(t, tasks, 1)
		assert.Equal(t, "t3", tasks[0].Title)

		rr = do(t, app, http.MethodGet, "/v1/tasks/projects/"+p.ID+"/users/"+carol.ID, nil, bob)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("UnknownMembership", func(t *testing.T) {
		rr := do(t, app, http.MethodGet, "/v1/project-users/0b6c0e2c-5b0e-4a53-9d7e-8d4c1b6f1f00/tasks", nil, bob)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestTaskVisibility(t *testing.T) {
	app := newTestApplication(t)
	admin := seedUser(t, app, "admin@example.com", roleAdmin)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)
	p := seedProject(t, app, "apollo")
	seedMember(t, app, p, alice, roleUser)
	seedMember(t, app, p, bob, roleUser)

	hidden := seedTask(t, app, &task{Title: "hidden", UserID: bob.ID, ProjectID: &p.ID, IsCreatedByAdmin: true, CreatedBy: &admin.ID})
	shared := seedTask(t, app, &task{Title: "shared", UserID: bob.ID, ProjectID: &p.ID})
	mine := seedTask(t, app, &task{Title: "mine", UserID: alice.ID, Status: statusInProgress})

	rr := do(t, app, http.MethodGet, "/v1/tasks/"+hidden.ID, nil, alice)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodGet, "/v1/tasks/"+hidden.ID, nil, bob)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, app, http.MethodGet, "/v1/tasks/"+shared.ID, nil, alice)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, app, http.MethodGet, "/v1/tasks", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	tasks := decode[[]task](t, rr)
	require.Len(t, tasks, 1)
	assert.Equal(t, mine.ID, tasks[0].ID)

	rr = do(t, app, http.MethodGet, "/v1/tasks?status=todo", nil, admin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]task](t, rr), 2)

	rr = do(t, app, http.MethodGet, "/v1/tasks?priority=urgent", nil, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestUpdateAndDeleteTaskHandlers(t *testing.T) {
	app := newTestApplication(t)
	admin := seedUser(t, app, "admin@example.com", roleAdmin)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)
	p := seedProject(t, app, "apollo")
	seedMember(t, app, p, alice, roleUser)
	seedMember(t, app, p, bob, roleUser)

	own := seedTask(t, app, &task{Title: "own", UserID: alice.ID, ProjectID: &p.ID})
	fromAdmin := seedTask(t, app, &task{Title: "from admin", UserID: alice.ID, IsCreatedByAdmin: true, CreatedBy: &admin.ID})

	rr := do(t, app, http.MethodPatch, "/v1/tasks/"+own.ID, map[string]any{"status": "coding done", "is_done": true}, alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[task](t, rr)
	assert.Equal(t, statusCodingDone, got.Status)
	assert.True(t, got.IsDone)

	rr = do(t, app, http.MethodPatch, "/v1/tasks/"+own.ID, map[string]any{"title": "stolen"}, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodPatch, "/v1/tasks/"+own.ID, map[string]any{"user_id": bob.ID}, alice)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodDelete, "/v1/tasks/"+fromAdmin.ID, nil, alice)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodDelete, "/v1/tasks/"+own.ID, nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, app, http.MethodGet, "/v1/tasks/"+own.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLinkTaskHandler(t *testing.T) {
	app := newTestApplication(t)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	a := seedTask(t, app, &task{Title: "a", UserID: alice.ID})
	b := seedTask(t, app, &task{Title: "b", UserID: alice.ID})
	c := seedTask(t, app, &task{Title: "c", UserID: alice.ID})

	link := func(child, parent string) int {
		rr := do(t, app, http.MethodPost, "/v1/tasks/link", map[string]string{"task_id": child, "parent_id": parent}, alice)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, link(b.ID, a.ID))
	require.Equal(t, http.StatusOK, link(c.ID, b.ID))

	assert.Equal(t, http.StatusUnprocessableEntity, link(a.ID, a.ID))
	assert.Equal(t, http.StatusUnprocessableEntity, link(a.ID, c.ID))
	assert.Equal(t, http.StatusNotFound, link(a.ID, "0b6c0e2c-5b0e-4a53-9d7e-8d4c1b6f1f00"))
	assert.Equal(t, http.StatusUnprocessableEntity, link(a.ID, "not-an-id"))

	rr := do(t, app, http.MethodGet, "/v1/tasks/"+a.ID+"/tasks", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	subtasks := decode[[]task](t, rr)
	require.Len(t, subtasks, 1)
	assert.Equal(t, b.ID, subtasks[0].ID)

	rr = do(t, app, http.MethodDelete, "/v1/tasks/"+a.ID+"/tasks", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, decode[countResponse](t, rr).Count)

	rr = do(t, app, http.MethodGet, "/v1/tasks/"+c.ID, nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[task](t, rr).ParentID)
}

func TestUserTasksHandlers(t *testing.T) {
	app := newTestApplication(t)
	admin := seedUser(t, app, "admin@example.com", roleAdmin)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)

	rr := do(t, app, http.MethodPost, "/v1/users/"+alice.ID+"/tasks", map[string]string{"title": "review"}, admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, decode[task](t, rr).IsCreatedByAdmin)

	rr = do(t, app, http.MethodPost, "/v1/users/"+alice.ID+"/tasks", map[string]string{"title": "sneaky"}, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodGet, "/v1/users/"+alice.ID+"/tasks", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]task](t, rr), 1)
}

func TestArchiveTask(t *testing.T) {
	app := newTestApplication(t)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	tk := seedTask(t, app, &task{Title: "old", UserID: alice.ID, IsDone: true})
	seedTask(t, app, &task{Title: "new", UserID: alice.ID})

	rr := do(t, app, http.MethodPatch, "/v1/tasks/"+tk.ID, map[string]bool{"is_deleted": true}, alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[task](t, rr).IsDeleted)

	rr = do(t, app, http.MethodGet, "/v1/tasks", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	tasks := decode[[]task](t, rr)
	require.Len(t, tasks, 1)
	assert.Equal(t, "new", tasks[0].Title)

	rr = do(t, app, http.MethodGet, "/v1/tasks?include_deleted=true", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]task](t, rr), 2)

	rr = do(t, app, http.MethodGet, "/v1/tasks/"+tk.ID, nil, alice)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProjectAdminManagesAssignedTask(t *testing.T) {
	app := newTestApplication(t)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)
	carol := seedUser(t, app, "carol@example.com", roleUser)
	p := seedProject(t, app, "apollo")
	seedMember(t, app, p, alice, roleAdmin)
	bobMember := seedMember(t, app, p, bob, roleUser)
	seedMember(t, app, p, carol, roleUser)

	rr := do(t, app, http.MethodPost, "/v1/project-users/"+bobMember.ID+"/tasks", map[string]string{"title": "review"}, alice)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tk := decode[task](t, rr)
	require.True(t, tk.IsCreatedByAdmin)
	path := "/v1/tasks/" + tk.ID

	rr = do(t, app, http.MethodGet, path, nil, alice)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, app, http.MethodGet, path, nil, bob)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, app, http.MethodGet, path, nil, carol)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodGet, "/v1/projects/"+p.ID+"/tasks", nil, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	tasks := decode[[]task](t, rr)
	require.Len(t, tasks, 1)
	assert.Equal(t, tk.ID, tasks[0].ID)

	rr = do(t, app, http.MethodPatch, path, map[string]string{"priority": "high"}, alice)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, priorityHigh, decode[task](t, rr).Priority)

	rr = do(t, app, http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateTaskUnderHiddenParent(t *testing.T) {
	app := newTestApplication(t)
	alice := seedUser(t, app, "alice@example.com", roleUser)
	bob := seedUser(t, app, "bob@example.com", roleUser)
	p := seedProject(t, app, "apollo")
	bobMember := seedMember(t, app, p, bob, roleUser)
	secret := seedTask(t, app, &task{Title: "secret", UserID: alice.ID})
	mine := seedTask(t, app, &task{Title: "mine", UserID: bob.ID})

	rr := do(t, app, http.MethodGet, "/v1/tasks/"+secret.ID, nil, bob)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "child", "parent_id": secret.ID}, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodPost, "/v1/users/"+bob.ID+"/tasks", map[string]string{"title": "child", "parent_id": secret.ID}, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodPost, "/v1/project-users/"+bobMember.ID+"/tasks", map[string]string{"title": "child", "parent_id": secret.ID}, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "child", "parent_id": "0b6c0e2c-5b0e-4a53-9d7e-8d4c1b6f1f00"}, bob)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, app, http.MethodPost, "/v1/tasks", map[string]string{"title": "child", "parent_id": mine.ID}, bob)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	got := decode[task](t, rr)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, mine.ID, *got.ParentID)
}
