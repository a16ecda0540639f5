package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averbeck/bookhold/catalog"
	"github.com/averbeck/bookhold/httpapi"
	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/memoryengine"
	"github.com/averbeck/bookhold/testutil/helper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testEnv struct {
	router      *gin.Engine
	store       *memoryengine.Store
	coordinator *reservation.Coordinator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store := memoryengine.NewStore()

	coordinator, err := reservation.NewCoordinator(store, store)
	require.NoError(t, err, "creating the coordinator failed")

	server := httpapi.NewServer(coordinator, catalog.NewService(store), store, store)

	return &testEnv{
		router:      server.Router(),
		store:       store,
		coordinator: coordinator,
	}
}

func (e *testEnv) do(method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)

	return recorder
}

func asRequester(id uuid.UUID) map[string]string {
	return map[string]string{"X-Requester-ID": id.String()}
}

func asAdmin() map[string]string {
	return map[string]string{"X-Requester-Role": "admin"}
}

func reserveBody(itemID uuid.UUID) string {
	return `{"itemId":"` + itemID.String() + `","startDate":"2030-01-01","endDate":"2030-01-08"}`
}

func Test_POST_Items_When_The_Requester_Is_Admin(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act
	recorder := env.do(http.MethodPost, "/api/items",
		`{"title":"The Go Programming Language","author":"Donovan & Kernighan","isbn":"978-0134190440","quantity":3}`,
		asAdmin())

	// assert
	assert.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		ID        uuid.UUID `json:"id"`
		Quantity  int       `json:"quantity"`
		Available int       `json:"available"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, 3, created.Quantity)
	assert.Equal(t, 3, created.Available)
}

func Test_POST_Items_When_The_Requester_Is_Not_Admin(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act
	recorder := env.do(http.MethodPost, "/api/items", `{"title":"X","quantity":1}`, nil)

	// assert
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func Test_POST_Items_When_The_Payload_Is_Invalid(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act: quantity missing
	recorder := env.do(http.MethodPost, "/api/items", `{"title":"X"}`, asAdmin())

	// assert
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func Test_GET_Items_Is_Public(t *testing.T) {
	// setup
	env := newTestEnv(t)
	item := helper.GivenItemInCatalog(t, context.Background(), env.store, 2)

	// act
	listRecorder := env.do(http.MethodGet, "/api/items", "", nil)
	getRecorder := env.do(http.MethodGet, "/api/items/"+item.ID.String(), "", nil)

	// assert
	assert.Equal(t, http.StatusOK, listRecorder.Code)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	assert.Contains(t, getRecorder.Body.String(), item.Title)
}

func Test_GET_Item_When_It_Does_Not_Exist(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act
	recorder := env.do(http.MethodGet, "/api/items/"+uuid.NewString(), "", nil)

	// assert
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func Test_POST_Reservations_Creates_An_Active_Hold(t *testing.T) {
	// setup
	env := newTestEnv(t)
	ctx := context.Background()
	item := helper.GivenItemInCatalog(t, ctx, env.store, 1)
	requesterID := helper.GivenUniqueID(t)

	// act
	recorder := env.do(http.MethodPost, "/api/reservations", reserveBody(item.ID), asRequester(requesterID))

	// assert
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"active"`)
	assert.Contains(t, recorder.Body.String(), item.Title)

	itemAfter, err := env.store.GetItem(ctx, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, itemAfter.Available)
}

func Test_POST_Reservations_When_The_Identity_Header_Is_Missing(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act
	recorder := env.do(http.MethodPost, "/api/reservations", reserveBody(uuid.New()), nil)

	// assert
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func Test_POST_Reservations_When_The_Item_Does_Not_Exist(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act
	recorder := env.do(http.MethodPost, "/api/reservations", reserveBody(uuid.New()), asRequester(uuid.New()))

	// assert
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func Test_POST_Reservations_When_No_Unit_Is_Available(t *testing.T) {
	// setup
	env := newTestEnv(t)
	ctx := context.Background()
	item := helper.GivenItemInCatalog(t, ctx, env.store, 1)
	helper.GivenActiveReservation(t, ctx, env.coordinator, helper.GivenUniqueID(t), item.ID)

	// act
	recorder := env.do(http.MethodPost, "/api/reservations", reserveBody(item.ID), asRequester(uuid.New()))

	// assert
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func Test_POST_Reservations_When_The_Dates_Are_Malformed(t *testing.T) {
	// setup
	env := newTestEnv(t)
	item := helper.GivenItemInCatalog(t, context.Background(), env.store, 1)

	// act
	body := `{"itemId":"` + item.ID.String() + `","startDate":"not-a-date","endDate":"2030-01-08"}`
	recorder := env.do(http.MethodPost, "/api/reservations", body, asRequester(uuid.New()))

	// assert
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func Test_POST_Reservations_When_The_Date_Range_Is_In_The_Past(t *testing.T) {
	// setup
	env := newTestEnv(t)
	item := helper.GivenItemInCatalog(t, context.Background(), env.store, 1)

	// act: well-formed dates, domain-invalid range
	body := `{"itemId":"` + item.ID.String() + `","startDate":"2020-01-01","endDate":"2020-01-08"}`
	recorder := env.do(http.MethodPost, "/api/reservations", body, asRequester(uuid.New()))

	// assert
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func Test_DELETE_Reservations_When_The_Requester_Owns_It(t *testing.T) {
	// setup
	env := newTestEnv(t)
	ctx := context.Background()
	item := helper.GivenItemInCatalog(t, ctx, env.store, 1)
	requesterID := helper.GivenUniqueID(t)
	rec := helper.GivenActiveReservation(t, ctx, env.coordinator, requesterID, item.ID)

	// act
	recorder := env.do(http.MethodDelete, "/api/reservations/"+rec.ID.String(), "", asRequester(requesterID))

	// assert
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	itemAfter, err := env.store.GetItem(ctx, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, itemAfter.Available)
}

func Test_DELETE_Reservations_When_The_Requester_Is_Not_The_Owner(t *testing.T) {
	// setup
	env := newTestEnv(t)
	ctx := context.Background()
	item := helper.GivenItemInCatalog(t, ctx, env.store, 1)
	rec := helper.GivenActiveReservation(t, ctx, env.coordinator, helper.GivenUniqueID(t), item.ID)

	// act
	recorder := env.do(http.MethodDelete, "/api/reservations/"+rec.ID.String(), "", asRequester(uuid.New()))

	// assert
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func Test_DELETE_Reservations_When_It_Does_Not_Exist(t *testing.T) {
	// setup
	env := newTestEnv(t)

	// act
	recorder := env.do(http.MethodDelete, "/api/reservations/"+uuid.NewString(), "", asRequester(uuid.New()))

	// assert
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func Test_GET_Reservations_Lists_Only_Own_Holds(t *testing.T) {
	// setup
	env := newTestEnv(t)
	ctx := context.Background()
	item := helper.GivenItemInCatalog(t, ctx, env.store, 2)
	requesterID := helper.GivenUniqueID(t)
	rec := helper.GivenActiveReservation(t, ctx, env.coordinator, requesterID, item.ID)
	helper.GivenActiveReservation(t, ctx, env.coordinator, helper.GivenUniqueID(t), item.ID)

	// act
	recorder := env.do(http.MethodGet, "/api/reservations", "", asRequester(requesterID))

	// assert
	assert.Equal(t, http.StatusOK, recorder.Code)

	var holds []struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &holds))
	require.Len(t, holds, 1)
	assert.Equal(t, rec.ID, holds[0].ID)
}

func Test_GET_Admin_Consistency(t *testing.T) {
	// setup
	env := newTestEnv(t)
	ctx := context.Background()
	item := helper.GivenItemInCatalog(t, ctx, env.store, 2)
	helper.GivenActiveReservation(t, ctx, env.coordinator, helper.GivenUniqueID(t), item.ID)

	// act
	adminRecorder := env.do(http.MethodGet, "/api/admin/consistency", "", asAdmin())
	anonRecorder := env.do(http.MethodGet, "/api/admin/consistency", "", nil)

	// assert
	assert.Equal(t, http.StatusOK, adminRecorder.Code)
	assert.Contains(t, adminRecorder.Body.String(), `"consistent":true`)
	assert.Equal(t, http.StatusForbidden, anonRecorder.Code)
}
