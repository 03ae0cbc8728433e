package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"equipment-manager/internal/entities"
	"equipment-manager/internal/repositories"
	"equipment-manager/internal/repositories/memory"
	"equipment-manager/internal/services"
	"equipment-manager/pkg/customvalidator"
	"equipment-manager/pkg/filestorage"
	"equipment-manager/pkg/service"
	"equipment-manager/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type EquipmentRouterSuite struct {
	suite.Suite
	Echo   *echo.Echo
	Store  *memory.EquipmentStore
	Assets *memory.AssetStore
	Files  *filestorage.LocalFileStorage
	Token  string
}

func (s *EquipmentRouterSuite) SetupTest() {
	nopLogger := zap.NewNop()

	e := echo.New()
	v := validator.New()
	s.Require().NoError(customvalidator.RegisterCustomValidations(v))
	e.Validator = utils.NewValidator(v)

	s.Store = memory.NewEquipmentStore()
	s.Assets = memory.NewAssetStore(entities.Asset{AssetNo: "A-1", Name: "Pump", SerialNo: "P-9"})
	metas := memory.NewMetaStore()
	cache := repositories.NewLocalCache(memory.NewCache(), repositories.DefaultLocalCacheKey, nopLogger)

	gateway := services.NewAssetGateway(s.Assets, nopLogger)
	reconciler := services.NewReconciler(s.Store, metas, cache, nil, nil, nopLogger)
	svc := services.NewEquipmentService(reconciler, gateway, metas, services.NewExportService(nopLogger), nopLogger)

	jwtSvc := service.NewJWTService("test-secret", time.Hour)
	token, err := jwtSvc.GenerateToken("tester@example.com", "Tester")
	s.Require().NoError(err)
	s.Token = token

	s.Files, err = filestorage.NewLocalFileStorage(s.T().TempDir())
	s.Require().NoError(err)

	InitRouter(e, svc, s.Files, jwtSvc, &Loggers{Main: nopLogger, Auth: nopLogger, Equipment: nopLogger})
	s.Echo = e
}

func (s *EquipmentRouterSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if s.Token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.Token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *EquipmentRouterSuite) decode(rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func validEquipment(serial string) map[string]interface{} {
	return map[string]interface{}{
		"serialNo":        serial,
		"model":           "M-200",
		"codeNo":          "C-1",
		"category":        "Press",
		"installDate":     "2024-01-10",
		"calibrationDate": "2024-06-01",
		"location":        "Plant A/Line 2/Bay 3",
	}
}

func (s *EquipmentRouterSuite) TestHealthIsPublic() {
	s.Token = ""
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *EquipmentRouterSuite) TestRequiresToken() {
	s.Token = ""
	rec := s.do(http.MethodGet, "/api/equipments", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *EquipmentRouterSuite) TestRejectsForeignToken() {
	other, err := service.NewJWTService("other-secret", time.Hour).GenerateToken("x@example.com", "")
	s.Require().NoError(err)
	s.Token = other
	rec := s.do(http.MethodGet, "/api/equipments", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *EquipmentRouterSuite) TestCreateThenFind() {
	rec := s.do(http.MethodPost, "/api/equipments", validEquipment("ABC 123"))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.True(s.Store.Has("ABC_123"))

	rec = s.do(http.MethodGet, "/api/equipments/SERIAL_ABC_123", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	body := s.decode(rec)["body"].(map[string]interface{})
	s.Equal("ABC 123", body["serialNo"])
	s.Equal("SERIAL_ABC_123", body["id"])

	rec = s.do(http.MethodGet, "/api/equipments", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(s.decode(rec)["body"], 1)
}

func (s *EquipmentRouterSuite) TestCreateReportsMissingFields() {
	rec := s.do(http.MethodPost, "/api/equipments", map[string]interface{}{"serialNo": "X1"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	body := s.decode(rec)["body"].(map[string]interface{})
	s.Contains(body["missing"], "model")
	s.False(s.Store.Has("X1"))
}

func (s *EquipmentRouterSuite) TestCreateRejectsUnknownStatus() {
	in := validEquipment("X2")
	in["status"] = "broken"
	rec := s.do(http.MethodPost, "/api/equipments", in)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *EquipmentRouterSuite) TestDuplicateSerialConflicts() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)
	rec := s.do(http.MethodPost, "/api/equipments", validEquipment("X1"))
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *EquipmentRouterSuite) TestRenameToExistingSerialConflicts() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)
	other := validEquipment("Y1")
	other["model"] = "M-300"
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", other).Code)

	rec := s.do(http.MethodPut, "/api/equipments/SERIAL_Y1", map[string]interface{}{"serialNo": "X1"})
	s.Equal(http.StatusConflict, rec.Code, rec.Body.String())

	s.True(s.Store.Has("Y1"))
	kept, ok := s.Store.Get("X1")
	s.Require().True(ok)
	s.Equal("M-200", kept.Model)
	s.Equal("SERIAL_X1", kept.ID)
}

func (s *EquipmentRouterSuite) TestUnknownEquipmentIsNotFound() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)
	rec := s.do(http.MethodGet, "/api/equipments/SERIAL_NOPE", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *EquipmentRouterSuite) TestLinkAndUnlinkAsset() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)

	rec := s.do(http.MethodPost, "/api/equipments/SERIAL_X1/assets", map[string]string{"assetNo": "A-1"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	row := s.decode(rec)["body"].(map[string]interface{})
	rowID := row["id"].(string)

	rec = s.do(http.MethodPost, "/api/equipments/SERIAL_X1/assets", map[string]string{"assetNo": "A-1"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/equipments/SERIAL_X1/assets", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(s.decode(rec)["body"], 1)

	asset, err := s.Assets.FindByAssetNo(context.Background(), "A-1")
	s.Require().NoError(err)
	s.Require().NotNil(asset.LinkedEquipment)
	s.Equal("X1", asset.LinkedEquipment.SerialNo)

	rec = s.do(http.MethodPost, "/api/equipments/SERIAL_X1/accessories/"+rowID+"/unlink", map[string]interface{}{
		"assetNo":  "A-1",
		"location": map[string]string{"region": "Store", "major": "Shelf 1"},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	asset, err = s.Assets.FindByAssetNo(context.Background(), "A-1")
	s.Require().NoError(err)
	s.Nil(asset.LinkedEquipment)
	s.Equal("Store", asset.Location.Region)

	eq, ok := s.Store.Get("X1")
	s.Require().True(ok)
	s.Empty(eq.Accessories)
}

func (s *EquipmentRouterSuite) TestLinkUnknownAsset() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)
	rec := s.do(http.MethodPost, "/api/equipments/SERIAL_X1/assets", map[string]string{"assetNo": "NOPE"})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *EquipmentRouterSuite) TestExport() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)
	rec := s.do(http.MethodGet, "/api/equipments/export", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Disposition"), ".xlsx")
	s.NotEmpty(rec.Body.Bytes())
}

func (s *EquipmentRouterSuite) TestAssetsPagination() {
	s.Require().NoError(s.Assets.UpsertMany(context.Background(), []entities.Asset{
		{AssetNo: "A-2", Name: "Valve"}, {AssetNo: "A-3", Name: "Gauge"},
	}))

	rec := s.do(http.MethodGet, "/api/assets?force=true&withPagination=true&limit=2&page=2", nil)
	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)["body"].(map[string]interface{})
	list := body["list"].([]interface{})
	s.Len(list, 1)
	pagination := body["pagination"].(map[string]interface{})
	s.EqualValues(3, pagination["total_count"])
	s.EqualValues(2, pagination["total_pages"])
}

func (s *EquipmentRouterSuite) upload(path, fileName string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(w.WriteField("desc", "общий вид"))
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.Token)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func pngBytes(s *EquipmentRouterSuite) []byte {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func (s *EquipmentRouterSuite) TestUploadPhoto() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)

	rec := s.upload("/api/equipments/SERIAL_X1/photos", "front.png", pngBytes(s))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	stored, ok := s.Store.Get("X1")
	s.Require().True(ok)
	s.Require().Len(stored.Photos, 1)
	s.Equal("общий вид", stored.Photos[0].Desc)
	s.Equal("Tester", stored.Photos[0].CreatedBy)
	s.True(strings.HasPrefix(stored.Photos[0].URL, filestorage.URLPrefix+"equipment/"))
	s.NotEmpty(stored.PhotoCode)
}

func (s *EquipmentRouterSuite) TestUploadRejectsNonImage() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)

	rec := s.upload("/api/equipments/SERIAL_X1/photos", "notes.txt", []byte("plain text"))
	s.Equal(http.StatusBadRequest, rec.Code)
	stored, _ := s.Store.Get("X1")
	s.Empty(stored.Photos)
}

func (s *EquipmentRouterSuite) TestUploadToUnknownEquipment() {
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/equipments", validEquipment("X1")).Code)

	rec := s.upload("/api/equipments/SERIAL_NOPE/photos", "front.png", pngBytes(s))
	s.Equal(http.StatusNotFound, rec.Code)
	entries, err := os.ReadDir(s.Files.BasePath())
	s.Require().NoError(err)
	for _, e := range entries {
		s.True(e.IsDir(), e.Name())
	}
}

func TestEquipmentRouterSuite(t *testing.T) {
	suite.Run(t, new(EquipmentRouterSuite))
}
