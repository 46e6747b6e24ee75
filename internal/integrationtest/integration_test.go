package integrationtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/address-book-service/internal/config"
	"gitlab.com/dirk.krummacker/address-book-service/internal/database"
	"gitlab.com/dirk.krummacker/address-book-service/internal/repository"
	"gitlab.com/dirk.krummacker/address-book-service/internal/service"
	"gitlab.com/dirk.krummacker/address-book-service/pkg/model"
)

// setupRouter wires the complete service on a fresh in-memory SQLite database.
func setupRouter(t *testing.T) *gin.Engine {
	ctx := context.Background()
	db, err := database.Open(ctx, zap.NewNop(), config.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(ctx, db))
	repo, err := repository.New(db, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	gin.SetMode(gin.ReleaseMode)
	return service.SetupHttpRouter(service.NewService(repo, zap.NewNop()), service.RouterOptions{})
}

// send executes a request against the router and returns the response.
func send(router *gin.Engine, method string, url string, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, strings.NewReader(body))
	router.ServeHTTP(recorder, request)
	return recorder
}

// createAddress posts an address with the given name and city and returns its id.
func createAddress(t *testing.T, router *gin.Engine, name string, city string) string {
	recorder := send(router, "POST", "/api/addresses", fmt.Sprintf(`{"name": %q, "city": %q}`, name, city))
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created model.Address
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	return fmt.Sprintf("%d", created.Id)
}

// decodeList parses a JSON array of addresses and returns their names.
func decodeList(t *testing.T, recorder *httptest.ResponseRecorder) []string {
	var addresses []model.Address
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &addresses))
	names := []string{}
	for _, a := range addresses {
		names = append(names, a.Name)
	}
	return names
}

// TestAddressHappyPath tests a POST, GET, PUT, and DELETE with valid data.
func TestAddressHappyPath(t *testing.T) {
	router := setupRouter(t)

	// test the endpoint for creating an address
	postRecorder := send(router, "POST", "/api/addresses", `
		{
			"name": "Alice",
			"phone": "555-1111",
			"email": "a@x.com",
			"street": "1 Main",
			"city": "Springfield",
			"state": "IL",
			"zipCode": "62704",
			"country": "US"
		}
	`)
	assert.Equal(t, http.StatusCreated, postRecorder.Code)
	var postBody model.Address
	json.Unmarshal(postRecorder.Body.Bytes(), &postBody)
	assert.NotZero(t, postBody.Id)
	idAsString := fmt.Sprintf("%d", postBody.Id)

	// test the endpoint for finding an address
	getRecorder := send(router, "GET", "/api/addresses/"+idAsString, "")
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var getBody model.Address
	json.Unmarshal(getRecorder.Body.Bytes(), &getBody)
	assert.Equal(t, model.Address{
		Id:      postBody.Id,
		Name:    "Alice",
		Phone:   "555-1111",
		Email:   "a@x.com",
		Street:  "1 Main",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62704",
		Country: "US",
	}, getBody)

	// test the endpoint for updating an address
	putRecorder := send(router, "PUT", "/api/addresses/"+idAsString, `
		{
			"name": "Rudi Völler",
			"phone": "+49 1234567890",
			"email": "rudi@example.de",
			"street": "Am Stadion 1",
			"city": "Hanau",
			"state": "HE",
			"zipCode": "63450",
			"country": "DE"
		}
	`)
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var putBody model.Address
	json.Unmarshal(putRecorder.Body.Bytes(), &putBody)
	expected := model.Address{
		Id:      postBody.Id,
		Name:    "Rudi Völler",
		Phone:   "+49 1234567890",
		Email:   "rudi@example.de",
		Street:  "Am Stadion 1",
		City:    "Hanau",
		State:   "HE",
		ZipCode: "63450",
		Country: "DE",
	}
	assert.Equal(t, expected, putBody)

	// test if a subsequent lookup of the address returns the updated values
	getAgainRecorder := send(router, "GET", "/api/addresses/"+idAsString, "")
	assert.Equal(t, http.StatusOK, getAgainRecorder.Code)
	var getAgainBody model.Address
	json.Unmarshal(getAgainRecorder.Body.Bytes(), &getAgainBody)
	assert.Equal(t, expected, getAgainBody)

	// test the endpoint for deleting an address
	deleteRecorder := send(router, "DELETE", "/api/addresses/"+idAsString, "")
	assert.Equal(t, http.StatusNoContent, deleteRecorder.Code)
	assert.Empty(t, deleteRecorder.Body.String())

	// test if a final lookup of the address will correctly not find it
	getFinalRecorder := send(router, "GET", "/api/addresses/"+idAsString, "")
	assert.Equal(t, http.StatusNotFound, getFinalRecorder.Code)
	assert.Empty(t, getFinalRecorder.Body.String())

	// a second delete must not find it either
	deleteAgainRecorder := send(router, "DELETE", "/api/addresses/"+idAsString, "")
	assert.Equal(t, http.StatusNotFound, deleteAgainRecorder.Code)
}

// TestDeleteUnknownAddress deletes an id that was never created.
func TestDeleteUnknownAddress(t *testing.T) {
	router := setupRouter(t)
	recorder := send(router, "DELETE", "/api/addresses/99999", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Empty(t, recorder.Body.String())
}

// TestUpdateUnknownAddress updates an id that was never created and expects that no address is
// created as a side effect.
func TestUpdateUnknownAddress(t *testing.T) {
	router := setupRouter(t)
	recorder := send(router, "PUT", "/api/addresses/99999", `{"name": "Ghost"}`)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	listRecorder := send(router, "GET", "/api/addresses", "")
	assert.Equal(t, http.StatusOK, listRecorder.Code)
	assert.Empty(t, decodeList(t, listRecorder))
}

// TestFindAllAddresses creates three addresses and retrieves them all.
func TestFindAllAddresses(t *testing.T) {
	router := setupRouter(t)

	emptyRecorder := send(router, "GET", "/api/addresses", "")
	assert.Equal(t, http.StatusOK, emptyRecorder.Code)
	assert.JSONEq(t, "[]", emptyRecorder.Body.String())

	createAddress(t, router, "Julius Cäsar", "Roma")
	createAddress(t, router, "Marc Anton", "Alexandria")
	createAddress(t, router, "Kleopatra", "Alexandria")

	recorder := send(router, "GET", "/api/addresses", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"Julius Cäsar", "Marc Anton", "Kleopatra"}, decodeList(t, recorder))
}

// TestSearchByName searches for "ali" and expects "Alice" and "Natalie", but not "Bob".
func TestSearchByName(t *testing.T) {
	router := setupRouter(t)
	createAddress(t, router, "Alice", "Springfield")
	createAddress(t, router, "Bob", "Springfield")
	createAddress(t, router, "Natalie", "Shelbyville")

	recorder := send(router, "GET", "/api/addresses/search?name=ali", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"Alice", "Natalie"}, decodeList(t, recorder))

	noMatchRecorder := send(router, "GET", "/api/addresses/search?name=xyz", "")
	assert.Equal(t, http.StatusOK, noMatchRecorder.Code)
	assert.JSONEq(t, "[]", noMatchRecorder.Body.String())
}

// TestFindByCity lists the addresses in "Springfield" and expects that an address in
// "springfield" is excluded.
func TestFindByCity(t *testing.T) {
	router := setupRouter(t)
	createAddress(t, router, "Alice", "Springfield")
	createAddress(t, router, "Bob", "springfield")
	createAddress(t, router, "Carla", "Springfield")

	recorder := send(router, "GET", "/api/addresses/city/Springfield", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"Alice", "Carla"}, decodeList(t, recorder))

	spacedRecorder := send(router, "GET", "/api/addresses/city/New%20York", "")
	assert.Equal(t, http.StatusOK, spacedRecorder.Code)
	assert.JSONEq(t, "[]", spacedRecorder.Body.String())
}

// TestCreateAddressInvalidBody tests a POST with different forms of invalid request body data.
func TestCreateAddressInvalidBody(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{
			"name": "Alice"
			"city": "Springfield"
		}`, // commas missing
	}

	router := setupRouter(t)
	for _, body := range invalidRequestBodies {
		recorder := send(router, "POST", "/api/addresses", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
	}
}
