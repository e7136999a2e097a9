//go:build integration

package integration_test

import (
	"net/http"
	"testing"

	"natours_backend/internal/models"
	"natours_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tourList struct {
	Status  string `json:"status"`
	Results int    `json:"results"`
	Data    struct {
		Data []map[string]interface{} `json:"data"`
	} `json:"data"`
}

func TestTours_QueryFilterSortProject(t *testing.T) {
	ts := GetTestServer(t)
	admin, _ := helpers.CreateAndLogin(t, ts, "Admin User", models.UserRoleAdmin)

	createTour(t, ts, admin, tourBody("The Forest Hiker", 397))
	createTour(t, ts, admin, tourBody("The Sea Explorer", 497))
	createTour(t, ts, admin, tourBody("The Snow Adventurer", 997))

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/tours?price[lt]=900&sort=-price&fields=name,price", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var list tourList
	decode(t, body, &list)
	require.Equal(t, 2, list.Results)
	assert.Equal(t, "The Sea Explorer", list.Data.Data[0]["name"])
	assert.Equal(t, "The Forest Hiker", list.Data.Data[1]["name"])
	assert.Contains(t, list.Data.Data[0], "id")
	assert.NotContains(t, list.Data.Data[0], "summary")

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/tours?sort=price&page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	decode(t, body, &list)
	require.Equal(t, 1, list.Results)
	assert.Equal(t, "the-snow-adventurer", list.Data.Data[0]["slug"])
}

func TestTours_SecretTourHidden(t *testing.T) {
	ts := GetTestServer(t)
	admin, _ := helpers.CreateAndLogin(t, ts, "Admin User", models.UserRoleAdmin)

	createTour(t, ts, admin, tourBody("The Public Explorer", 400))
	secret := tourBody("The Secret Explorer", 400)
	secret["secretTour"] = true
	secretID := createTour(t, ts, admin, secret)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/tours", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list tourList
	decode(t, body, &list)
	assert.Equal(t, 1, list.Results)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/tours/"+secretID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestTours_DuplicateName(t *testing.T) {
	ts := GetTestServer(t)
	admin, _ := helpers.CreateAndLogin(t, ts, "Admin User", models.UserRoleAdmin)

	createTour(t, ts, admin, tourBody("The Forest Hiker", 397))
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/tours", admin, tourBody("The Forest Hiker", 397))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Duplicate")
	assert.Contains(t, body, `"status":"fail"`)
}

func TestTours_InvalidID(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/tours/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Invalid")
}

func TestTours_Stats(t *testing.T) {
	ts := GetTestServer(t)
	admin, _ := helpers.CreateAndLogin(t, ts, "Admin User", models.UserRoleAdmin)
	createTour(t, ts, admin, tourBody("The Forest Hiker", 397))

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/tours/tour-stats", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"stats"`)
	assert.Contains(t, body, "EASY")
}

func TestUnknownAPIRoute(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, body, "Can't find /api/v1/nope on this server!")
}
