package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/dto"
	"chatflow-service/internal/model"
	"chatflow-service/internal/query"
	"chatflow-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// fakeFlowStore keeps flows in memory and mimics the repository's error
// contract
type fakeFlowStore struct {
	flows       map[string]model.Flow
	deleted     map[string]model.Flow
	lastFilters map[string]interface{}
}

func newFakeFlowStore(flows ...model.Flow) *fakeFlowStore {
	s := &fakeFlowStore{flows: map[string]model.Flow{}, deleted: map[string]model.Flow{}}
	for _, f := range flows {
		s.flows[f.ID] = f
	}
	return s
}

func (s *fakeFlowStore) Desc() model.Descriptor { return model.FlowDescriptor }

func (s *fakeFlowStore) FindAll(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string) ([]model.Flow, int64, error) {
	s.lastFilters = filters
	var out []model.Flow
	for _, f := range s.flows {
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (s *fakeFlowStore) FindAllDeleted(ctx context.Context, filters map[string]interface{}, page int, sort []query.SortField, enterpriseID string) ([]model.Flow, int64, error) {
	var out []model.Flow
	for _, f := range s.flows {
		out = append(out, f)
	}
	for _, f := range s.deleted {
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (s *fakeFlowStore) FindByID(ctx context.Context, id, enterpriseID string) (*model.Flow, error) {
	f, ok := s.flows[id]
	if !ok {
		return nil, apperr.NotFoundf("Entity not found")
	}
	return &f, nil
}

func (s *fakeFlowStore) Create(ctx context.Context, entity *model.Flow, enterpriseID string) (*model.Flow, error) {
	if entity.ID == "" {
		entity.ID = "generated"
	}
	s.flows[entity.ID] = *entity
	return entity, nil
}

func (s *fakeFlowStore) Update(ctx context.Context, id string, data map[string]interface{}, enterpriseID string) (*model.Flow, error) {
	if len(data) == 0 {
		return nil, apperr.Validationf("You did not provide valid attributes for the entity")
	}
	f, ok := s.flows[id]
	if !ok {
		return nil, apperr.NotFoundf("Entity not found")
	}
	if name, ok := data["name"].(string); ok {
		f.Name = name
	}
	s.flows[id] = f
	return &f, nil
}

func (s *fakeFlowStore) Delete(ctx context.Context, id, enterpriseID string) error {
	if _, ok := s.flows[id]; !ok {
		return apperr.NotFoundf("Entity not found")
	}
	delete(s.flows, id)
	return nil
}

func (s *fakeFlowStore) LogicDelete(ctx context.Context, id, enterpriseID string) error {
	f, ok := s.flows[id]
	if !ok {
		return apperr.NotFoundf("Entity not found")
	}
	delete(s.flows, id)
	s.deleted[id] = f
	return nil
}

func (s *fakeFlowStore) Restore(ctx context.Context, id, enterpriseID string) (*model.Flow, error) {
	f, ok := s.deleted[id]
	if !ok {
		return nil, apperr.NotFoundf("Entity not found")
	}
	delete(s.deleted, id)
	s.flows[id] = f
	return &f, nil
}

// typedFilterStore overrides the descriptor so typed filters can be exercised
type typedFilterStore struct {
	*fakeFlowStore
	desc model.Descriptor
}

func (s *typedFilterStore) Desc() model.Descriptor { return s.desc }

type fakeResolver struct{ enterpriseID string }

func (r fakeResolver) EnterpriseID(ctx context.Context, desc model.Descriptor, claims *jwtutil.UserClaims) (string, error) {
	return r.enterpriseID, nil
}

func newFlowHandlerForTest(store Store[model.Flow]) *Handler[model.Flow, dto.FlowDTO] {
	return NewHandler(store, fakeResolver{}, func(f *model.Flow) dto.FlowDTO { return dto.NewFlowDTO(f) }, nil)
}

func doRequest(t *testing.T, method, target, body string, h echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, h(c))
	return rec
}

func TestGetAllReturnsPaginationEnvelope(t *testing.T) {
	store := newFakeFlowStore(model.Flow{Base: model.Base{ID: "f1", CreatedAt: time.Now()}, Name: "greeting"})
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodGet, "/flows", "", h.GetAll)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, key := range []string{"totalPages", "currentPage", "previousPage", "nextPage", "totalItems", "entitiesDTO"} {
		require.Contains(t, resp, key)
	}

	var entities []dto.FlowDTO
	require.NoError(t, json.Unmarshal(resp["entitiesDTO"], &entities))
	require.Len(t, entities, 1)
	require.Equal(t, "greeting", entities[0].Name)
}

func TestGetAllRejectsUnknownQueryKeys(t *testing.T) {
	h := newFlowHandlerForTest(newFakeFlowStore())

	rec := doRequest(t, http.MethodGet, "/flows?bogus=1&name=x&other=2", "", h.GetAll)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
	require.Equal(t, "The query parameters [bogus, other] are not valid", resp.Message)
}

func TestGetAllAllowsPageAndOrderBy(t *testing.T) {
	h := newFlowHandlerForTest(newFakeFlowStore())

	rec := doRequest(t, http.MethodGet, "/flows?page=2&orderBy=name:desc", "", h.GetAll)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetByIDNotFound(t *testing.T) {
	h := newFlowHandlerForTest(newFakeFlowStore())

	rec := doRequest(t, http.MethodGet, "/flows/missing", "", h.GetByID, "id", "missing")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
	require.Equal(t, "Entity not found", resp.Message)
}

func TestCreateReturnsCreatedDTO(t *testing.T) {
	store := newFakeFlowStore()
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodPost, "/flows", `{"name":"greeting","description":"says hi","id":"spoofed"}`, h.Create)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.FlowDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "greeting", created.Name)
	// the id in the body is discarded, not honored
	require.NotEqual(t, "spoofed", created.ID)
}

func TestUpdateRejectsUnknownAttributes(t *testing.T) {
	store := newFakeFlowStore(model.Flow{Base: model.Base{ID: "f1"}, Name: "old"})
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodPatch, "/flows/f1", `{"name":"new","hacker":"x"}`, h.Update, "id", "f1")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "old", store.flows["f1"].Name)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
	require.Equal(t, "The attributes [hacker] are not valid for the entity", resp.Message)
}

func TestCreateRejectsRelationBodyKeys(t *testing.T) {
	store := newFakeFlowStore()
	h := newFlowHandlerForTest(store)

	// a nested relation in the body must not reach the store, where it would
	// insert rows without uniqueness checks
	body := `{"name":"greeting","pricingPlans":[{"name":"dup-plan","price":1}]}`
	rec := doRequest(t, http.MethodPost, "/flows", body, h.Create)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Empty(t, store.flows)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
	require.Equal(t, "The attributes [pricingPlans] are not valid for the entity", resp.Message)
}

func typedFilterHandler(base *fakeFlowStore) *Handler[model.Flow, dto.FlowDTO] {
	desc := model.FlowDescriptor
	desc.Filterable = map[string]model.FilterField{
		"connected": {Column: "connected", Type: model.FilterBool},
		"numOrder":  {Column: "num_order", Type: model.FilterInt},
	}
	store := &typedFilterStore{fakeFlowStore: base, desc: desc}
	return NewHandler[model.Flow, dto.FlowDTO](store, fakeResolver{}, func(f *model.Flow) dto.FlowDTO { return dto.NewFlowDTO(f) }, nil)
}

func TestGetAllRejectsUncoercibleFilterValues(t *testing.T) {
	h := typedFilterHandler(newFakeFlowStore())

	rec := doRequest(t, http.MethodGet, "/flows?connected=banana", "", h.GetAll)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Error)
	require.Equal(t, "The query parameters [connected] are not valid", resp.Message)
}

func TestGetAllCoercesTypedFilterValues(t *testing.T) {
	base := newFakeFlowStore()
	h := typedFilterHandler(base)

	rec := doRequest(t, http.MethodGet, "/flows?connected=true&numOrder=3", "", h.GetAll)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, base.lastFilters["connected"])
	require.Equal(t, 3, base.lastFilters["num_order"])
}

func TestUpdateWithNoValidAttributesFails(t *testing.T) {
	store := newFakeFlowStore(model.Flow{Base: model.Base{ID: "f1"}, Name: "old"})
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodPatch, "/flows/f1", `{"hacker":"x"}`, h.Update, "id", "f1")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "old", store.flows["f1"].Name)
}

func TestDeleteReturnsNoContent(t *testing.T) {
	store := newFakeFlowStore(model.Flow{Base: model.Base{ID: "f1"}})
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodDelete, "/flows/f1", "", h.Delete, "id", "f1")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, store.flows)
}

func TestLogicDeleteThenRestoreRoundTrip(t *testing.T) {
	store := newFakeFlowStore(model.Flow{Base: model.Base{ID: "f1"}, Name: "greeting"})
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodDelete, "/flows/logicDelete/f1", "", h.LogicDelete, "id", "f1")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// gone from the active listing
	rec = doRequest(t, http.MethodGet, "/flows/f1", "", h.GetByID, "id", "f1")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// still visible in the deleted listing
	rec = doRequest(t, http.MethodGet, "/flows/getAllDeleted", "", h.GetAllDeleted)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodPatch, "/flows/restore/f1", "", h.Restore, "id", "f1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodGet, "/flows/f1", "", h.GetByID, "id", "f1")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRestoreActiveEntityNotFound(t *testing.T) {
	store := newFakeFlowStore(model.Flow{Base: model.Base{ID: "f1"}})
	h := newFlowHandlerForTest(store)

	rec := doRequest(t, http.MethodPatch, "/flows/restore/f1", "", h.Restore, "id", "f1")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDTOHidesInternalFields(t *testing.T) {
	deletedAt := time.Now()
	flow := model.Flow{Base: model.Base{ID: "f1", CreatedAt: time.Now()}, Name: "greeting"}
	flow.DeletedAt.Time = deletedAt
	flow.DeletedAt.Valid = true
	h := newFlowHandlerForTest(newFakeFlowStore(flow))

	rec := doRequest(t, http.MethodGet, "/flows/f1", "", h.GetByID, "id", "f1")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.NotContains(t, raw, "deletedAt")
	require.NotContains(t, raw, "messages")
	require.Contains(t, raw, "id")
	require.Contains(t, raw, "createdAt")
}
