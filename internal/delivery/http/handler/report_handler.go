package handler

import (
	"net/http"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/delivery/http/middleware"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v3"
)

type ReportHandler struct {
	reportService  service.ReportService
	storageService service.StorageService
}

func NewReportHandler(rs service.ReportService, ss service.StorageService) *ReportHandler {
	return &ReportHandler{
		reportService:  rs,
		storageService: ss,
	}
}

type reportResponse struct {
	*entity.Report
	TotalAssetValue int64 `json:"total_asset_value"`
}

func toReportResponse(r *entity.Report) reportResponse {
	return reportResponse{Report: r, TotalAssetValue: r.TotalAssetValue()}
}

func toReportResponses(reports []entity.Report) []reportResponse {
	out := make([]reportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toReportResponse(&reports[i]))
	}
	return out
}

type assetRequest struct {
	AssetType      string `json:"asset_type" binding:"required,max=64"`
	AssetName      string `json:"asset_name" binding:"max=255"`
	Quantity       int    `json:"quantity" binding:"min=0"`
	Unit           string `json:"unit" binding:"max=32"`
	EstimatedValue *int64 `json:"estimated_value" binding:"omitempty,min=0"`
}

func (r assetRequest) draft() entity.AssetDraft {
	return entity.AssetDraft{
		AssetType:      r.AssetType,
		AssetName:      r.AssetName,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		EstimatedValue: null.IntFromPtr(r.EstimatedValue),
	}
}

type createReportRequest struct {
	ReporterName  string         `json:"reporter_name" binding:"max=255"`
	ReporterPhone string         `json:"reporter_phone" binding:"omitempty,phone"`
	EventType     string         `json:"event_type" binding:"required,max=64"`
	DamageLevel   int            `json:"damage_level" binding:"min=0,max=5"`
	EstimatedLoss *int64         `json:"estimated_loss" binding:"omitempty,min=0"`
	Description   string         `json:"description"`
	ImageURL      string         `json:"image_url" binding:"omitempty,url"`
	Longitude     *float64       `json:"longitude" binding:"required_with=Latitude,omitempty,longitude"`
	Latitude      *float64       `json:"latitude" binding:"required_with=Longitude,omitempty,latitude"`
	EventID       string         `json:"event_id" binding:"omitempty,uuid"`
	AreaID        string         `json:"area_id" binding:"omitempty,uuid"`
	Assets        []assetRequest `json:"assets" binding:"omitempty,dive"`
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft := entity.ReportDraft{
		ReporterName:  req.ReporterName,
		ReporterPhone: req.ReporterPhone,
		EventType:     req.EventType,
		DamageLevel:   req.DamageLevel,
		EstimatedLoss: null.IntFromPtr(req.EstimatedLoss),
		Description:   req.Description,
		ImageURL:      null.NewString(req.ImageURL, req.ImageURL != ""),
		EventID:       req.EventID,
		AreaID:        req.AreaID,
	}
	if req.Longitude != nil && req.Latitude != nil {
		draft.Location = &entity.Point{Longitude: *req.Longitude, Latitude: *req.Latitude}
	}
	for _, a := range req.Assets {
		draft.Assets = append(draft.Assets, a.draft())
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), draft, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "report created", toReportResponse(report))
}

func (h *ReportHandler) List(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reports, err := h.reportService.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponses(reports))
}

// Unverified lists the reports still waiting for an official.
func (h *ReportHandler) Unverified(c *gin.Context) {
	reports, err := h.reportService.ListReports(c.Request.Context(), entity.ReportFilter{Status: entity.StatusUnverified})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponses(reports))
}

func reportFilterFromQuery(c *gin.Context) (entity.ReportFilter, error) {
	filter := entity.ReportFilter{EventType: strings.TrimSpace(c.Query("event_type"))}
	var err error
	if filter.UserID, err = queryID(c, "user_id"); err != nil {
		return filter, err
	}
	if filter.EventID, err = queryID(c, "event_id"); err != nil {
		return filter, err
	}
	if filter.AreaID, err = queryID(c, "area_id"); err != nil {
		return filter, err
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := entity.ParseReportStatus(raw)
		if !ok {
			return filter, apperr.InvalidArgument("invalid report status: %q", raw)
		}
		filter.Status = status
	}
	level, set, err := queryInt(c, "min_damage_level")
	if err != nil {
		return filter, err
	}
	if set {
		filter.MinDamageLevel = &level
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *ReportHandler) GetDetails(c *gin.Context) {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return
	}
	report, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponse(report))
}

// Update applies a partial update. Fields absent from the body are kept,
// explicit nulls clear the optional ones.
func (h *ReportHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return
	}
	var patch entity.ReportPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.reportService.UpdateReport(c.Request.Context(), id, patch, middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "report updated", toReportResponse(report))
}

type verifyRequest struct {
	Status    string                  `json:"status" binding:"required"`
	AdminNote entity.Optional[string] `json:"admin_note"`
}

func (h *ReportHandler) Verify(c *gin.Context) {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.reportService.VerifyReport(c.Request.Context(), id, req.Status, middleware.IdentityFrom(c), req.AdminNote)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "report status updated", toReportResponse(report))
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return
	}
	if err := h.reportService.DeleteReport(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "report deleted", nil)
}

func (h *ReportHandler) Nearby(c *gin.Context) {
	center, err := queryPoint(c)
	if err != nil {
		respondError(c, err)
		return
	}
	radius, err := queryFloat(c, "radius", false)
	if err != nil {
		respondError(c, err)
		return
	}
	reports, err := h.reportService.FindWithinRadius(c.Request.Context(), center, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponses(reports))
}

func (h *ReportHandler) InBounds(c *gin.Context) {
	box, err := queryBox(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reports, err := h.reportService.FindInBoundingBox(c.Request.Context(), box)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponses(reports))
}

func (h *ReportHandler) ByArea(c *gin.Context) {
	areaID, ok := pathID(c, "areaId", "DamageArea")
	if !ok {
		return
	}
	reports, err := h.reportService.FindInArea(c.Request.Context(), areaID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponses(reports))
}

func (h *ReportHandler) ByCell(c *gin.Context) {
	reports, err := h.reportService.FindByCell(c.Request.Context(), c.Param("h3"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReportResponses(reports))
}

func (h *ReportHandler) GetUploadURL(c *gin.Context) {
	fileName := c.Query("file_name")
	if fileName == "" {
		respond(c, http.StatusBadRequest, "file_name query param is required", nil)
		return
	}
	if h.storageService == nil {
		respond(c, http.StatusServiceUnavailable, "image uploads are disabled", nil)
		return
	}

	target, err := h.storageService.GenerateUploadURL(c.Request.Context(), fileName)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, target)
}

func (h *ReportHandler) AddAsset(c *gin.Context) {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return
	}
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	asset, err := h.reportService.AddAsset(c.Request.Context(), id, req.draft(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "asset added", asset)
}

func (h *ReportHandler) ListAssets(c *gin.Context) {
	id, ok := pathID(c, "id", "Report")
	if !ok {
		return
	}
	assets, err := h.reportService.ListAssets(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, assets)
}

func (h *ReportHandler) DeleteAsset(c *gin.Context) {
	assetID, ok := pathID(c, "assetId", "DamageAsset")
	if !ok {
		return
	}
	if err := h.reportService.DeleteAsset(c.Request.Context(), assetID, middleware.IdentityFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "asset deleted", nil)
}
