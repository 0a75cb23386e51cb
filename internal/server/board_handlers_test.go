package server

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

func (e *testEnv) createBoard(t *testing.T, cookie, name string) uint {
	t.Helper()
	resp, env := e.doJSON(t, fiber.MethodPost, "/api/boards", fiber.Map{"name": name}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
	return dataID(t, env)
}

// layoutColumns pulls the ordered column list out of a layout response.
func (e *testEnv) layoutColumns(t *testing.T, cookie string, boardID uint) []map[string]any {
	t.Helper()
	resp, env := e.doJSON(t, fiber.MethodGet, fmt.Sprintf("/api/boards/%d/layout", boardID), nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	raw, ok := dataField(t, env, "columns").([]any)
	require.True(t, ok, "layout must carry columns")
	columns := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		col, ok := item.(map[string]any)
		require.True(t, ok)
		columns = append(columns, col)
	}
	return columns
}

func TestCreateBoard_SeedsDefaultColumns(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.registerAndLogin(t, uniqueEmail("board-create"))

	boardID := e.createBoard(t, cookie, "Sprint 12")

	columns := e.layoutColumns(t, cookie, boardID)
	require.Len(t, columns, len(models.DefaultColumnNames))
	for i, col := range columns {
		assert.Equal(t, models.DefaultColumnNames[i], col["name"])
		assert.Equal(t, float64(i+1), col["position"])
	}
}

func TestCreateBoard_Validation(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.registerAndLogin(t, uniqueEmail("board-valid"))

	resp, _ := e.doJSON(t, fiber.MethodPost, "/api/boards", fiber.Map{"name": "   "}, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBoards_RequireAuth(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.doJSON(t, fiber.MethodGet, "/api/boards", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetBoard_InvalidID(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.registerAndLogin(t, uniqueEmail("board-badid"))

	resp, env := e.doJSON(t, fiber.MethodGet, "/api/boards/banana", nil, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Message, "board ID")
}

func TestShareBoard_Journey(t *testing.T) {
	e := newTestEnv(t)
	owner := e.registerAndLogin(t, uniqueEmail("share-owner"))
	guest := e.registerAndLogin(t, uniqueEmail("share-guest"))

	boardID := e.createBoard(t, owner, "Shared work")
	path := fmt.Sprintf("/api/boards/%d", boardID)

	// Not shared yet: the guest sees nothing.
	resp, _ := e.doJSON(t, fiber.MethodGet, path+"/layout", nil, guest)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env := e.doJSON(t, fiber.MethodPost, path+"/share", fiber.Map{
		"email": uniqueEmail("share-guest"),
	}, owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	resp, _ = e.doJSON(t, fiber.MethodGet, path+"/layout", nil, guest)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The shared board shows up in the guest's list.
	resp, env = e.doJSON(t, fiber.MethodGet, "/api/boards", nil, guest)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	boards, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, boards, 1)

	// Only the owner may share or unshare.
	resp, _ = e.doJSON(t, fiber.MethodPost, path+"/share", fiber.Map{
		"email": uniqueEmail("share-owner"),
	}, guest)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Find the guest's id and revoke.
	resp, env = e.doJSON(t, fiber.MethodGet, path+"/users", nil, owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	users, ok := env.Data.([]any)
	require.True(t, ok)
	require.Len(t, users, 2)
	guestID := uint((users[1].(map[string]any))["id"].(float64))

	resp, _ = e.doJSON(t, fiber.MethodDelete, fmt.Sprintf("%s/share/%d", path, guestID), nil, owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = e.doJSON(t, fiber.MethodGet, path+"/layout", nil, guest)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestShareBoard_UnknownEmail(t *testing.T) {
	e := newTestEnv(t)
	owner := e.registerAndLogin(t, uniqueEmail("share-unknown"))
	boardID := e.createBoard(t, owner, "Lonely board")

	resp, _ := e.doJSON(t, fiber.MethodPost, fmt.Sprintf("/api/boards/%d/share", boardID), fiber.Map{
		"email": "nobody@example.com",
	}, owner)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateAndDeleteBoard_OwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	owner := e.registerAndLogin(t, uniqueEmail("mut-owner"))
	guest := e.registerAndLogin(t, uniqueEmail("mut-guest"))

	boardID := e.createBoard(t, owner, "Renameable")
	path := fmt.Sprintf("/api/boards/%d", boardID)

	_, env := e.doJSON(t, fiber.MethodPost, path+"/share", fiber.Map{
		"email": uniqueEmail("mut-guest"),
	}, owner)
	require.True(t, env.Success, env.Message)

	// A collaborator can read but not rename or delete.
	resp, _ := e.doJSON(t, fiber.MethodPut, path, fiber.Map{"name": "Hijacked"}, guest)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = e.doJSON(t, fiber.MethodDelete, path, nil, guest)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env = e.doJSON(t, fiber.MethodPut, path, fiber.Map{"name": "Renamed"}, owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", dataField(t, env, "name"))

	resp, _ = e.doJSON(t, fiber.MethodDelete, path, nil, owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	// The access predicate no longer matches a deleted board.
	resp, _ = e.doJSON(t, fiber.MethodGet, path, nil, owner)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSearchBoards(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.registerAndLogin(t, uniqueEmail("board-search"))
	e.createBoard(t, cookie, "Backend sprint")
	e.createBoard(t, cookie, "Frontend sprint")
	e.createBoard(t, cookie, "Marketing")

	resp, env := e.doJSON(t, fiber.MethodGet, "/api/boards/search?q=sprint", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	boards, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, boards, 2)

	// An empty query falls back to the full list.
	resp, env = e.doJSON(t, fiber.MethodGet, "/api/boards/search", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	boards, ok = env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, boards, 3)
}

func TestColumnLifecycle(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.registerAndLogin(t, uniqueEmail("column-life"))
	boardID := e.createBoard(t, cookie, "Columns")

	// Append a sixth column.
	resp, env := e.doJSON(t, fiber.MethodPost, fmt.Sprintf("/api/boards/%d/columns", boardID), fiber.Map{
		"name": "Blocked",
	}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
	columnID := dataID(t, env)
	assert.Equal(t, float64(6), dataField(t, env, "position"))

	// Move it to the front.
	resp, _ = e.doJSON(t, fiber.MethodPatch, fmt.Sprintf("/api/columns/%d/move", columnID), fiber.Map{
		"position": 1,
	}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	columns := e.layoutColumns(t, cookie, boardID)
	require.Len(t, columns, 6)
	assert.Equal(t, "Blocked", columns[0]["name"])
	assert.Equal(t, models.DefaultColumnNames[0], columns[1]["name"])

	// Rename.
	resp, env = e.doJSON(t, fiber.MethodPut, fmt.Sprintf("/api/columns/%d", columnID), fiber.Map{
		"name": "On hold",
	}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "On hold", dataField(t, env, "name"))

	// Delete renumbers the survivors back to 1..5.
	resp, _ = e.doJSON(t, fiber.MethodDelete, fmt.Sprintf("/api/columns/%d", columnID), nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	columns = e.layoutColumns(t, cookie, boardID)
	require.Len(t, columns, len(models.DefaultColumnNames))
	for i, col := range columns {
		assert.Equal(t, models.DefaultColumnNames[i], col["name"])
		assert.Equal(t, float64(i+1), col["position"])
	}
}

func TestColumnOps_RequireBoardAccess(t *testing.T) {
	e := newTestEnv(t)
	owner := e.registerAndLogin(t, uniqueEmail("column-owner"))
	stranger := e.registerAndLogin(t, uniqueEmail("column-stranger"))

	boardID := e.createBoard(t, owner, "Private")
	columns := e.layoutColumns(t, owner, boardID)
	columnID := uint(columns[0]["id"].(float64))

	resp, _ := e.doJSON(t, fiber.MethodPost, fmt.Sprintf("/api/boards/%d/columns", boardID), fiber.Map{
		"name": "Sneaky",
	}, stranger)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = e.doJSON(t, fiber.MethodPut, fmt.Sprintf("/api/columns/%d", columnID), fiber.Map{
		"name": "Sneaky",
	}, stranger)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = e.doJSON(t, fiber.MethodDelete, fmt.Sprintf("/api/columns/%d", columnID), nil, stranger)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestBoardStats(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.registerAndLogin(t, uniqueEmail("board-stats"))
	boardID := e.createBoard(t, cookie, "Stats")
	columns := e.layoutColumns(t, cookie, boardID)
	columnID := uint(columns[0]["id"].(float64))

	first := e.createTask(t, cookie, columnID, "One")
	e.createTask(t, cookie, columnID, "Two")

	resp, _ := e.doJSON(t, fiber.MethodPatch, fmt.Sprintf("/api/tasks/%d/toggle-complete", first), nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env := e.doJSON(t, fiber.MethodGet, fmt.Sprintf("/api/boards/%d/stats", boardID), nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), dataField(t, env, "total"))
	assert.Equal(t, float64(1), dataField(t, env, "completed"))
}
