package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

const maxUploadMemory = 10 << 20

type BoxHandler struct {
	boxSvc     service.BoxService
	storageSvc service.StorageService
}

func NewBoxHandler(boxSvc service.BoxService, storageSvc service.StorageService) *BoxHandler {
	return &BoxHandler{boxSvc: boxSvc, storageSvc: storageSvc}
}

func (h *BoxHandler) CreateBox(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	box, err := h.boxSvc.CreateBox(r.Context(), caller, body.Name, body.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, box)
}

func (h *BoxHandler) ListBoxes(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxes, err := h.boxSvc.ListBoxes(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, boxes)
}

func (h *BoxHandler) GetBox(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}
	box, contents, err := h.boxSvc.GetBox(r.Context(), caller, boxID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"box": box, "contents": contents})
}

func (h *BoxHandler) UpdateBox(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	box, err := h.boxSvc.UpdateBox(r.Context(), caller, boxID, body.Name, body.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, box)
}

func (h *BoxHandler) DeleteBox(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}
	if err := h.boxSvc.DeleteBox(r.Context(), caller, boxID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"box_id": boxID, "status": "deleted"})
}

// AddContent attaches either a text note or an uploaded media object to a
// box. Text arrives as JSON; media as multipart/form-data with a "file" part.
func (h *BoxHandler) AddContent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		h.addMediaContent(w, r, caller, boxID)
		return
	}

	var body struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	content, err := h.boxSvc.AddContent(r.Context(), caller, boxID, body.Type, body.Value, "")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, content)
}

func (h *BoxHandler) addMediaContent(w http.ResponseWriter, r *http.Request, caller service.Caller, boxID uint) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart payload", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "file part is required", nil)
		return
	}
	defer file.Close()

	mediaType := r.FormValue("type")
	if mediaType == "" {
		mediaType = domain.ContentTypeImage
	}

	objectKey, err := h.storageSvc.UploadBoxMedia(r.Context(), caller.UserID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig):
			response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrInvalidFileType):
			response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "upload failed", nil)
		}
		return
	}

	content, err := h.boxSvc.AddContent(r.Context(), caller, boxID, mediaType, header.Filename, objectKey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, content)
}

// SetDesign stores the rendered label design for a box and records the QR
// scan target. Multipart: a "file" part plus an optional "qr_url" field.
func (h *BoxHandler) SetDesign(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart payload", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "file part is required", nil)
		return
	}
	defer file.Close()

	objectKey, err := h.storageSvc.UploadBoxMedia(r.Context(), caller.UserID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig), errors.Is(err, service.ErrInvalidFileType):
			response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "upload failed", nil)
		}
		return
	}

	box, err := h.boxSvc.SetBoxDesign(r.Context(), caller, boxID, objectKey, r.FormValue("qr_url"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, box)
}

// DesignURL returns a short-lived presigned URL for the box label design.
func (h *BoxHandler) DesignURL(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}
	box, _, err := h.boxSvc.GetBox(r.Context(), caller, boxID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if box.DesignObjectKey == "" {
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "box has no label design", nil)
		return
	}
	url, err := h.storageSvc.GenerateObjectURL(r.Context(), box.DesignObjectKey)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "url generation failed", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"url": url, "qr_code_url": box.QRCodeURL})
}

func (h *BoxHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	contentID, err := parsePathID(chi.URLParam(r, "contentID"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid content id", nil)
		return
	}
	if err := h.boxSvc.DeleteContent(r.Context(), caller, contentID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"content_id": contentID, "status": "deleted"})
}

// ContentURL returns a short-lived presigned URL for a media content item.
func (h *BoxHandler) ContentURL(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	boxID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid box id", nil)
		return
	}
	contentID, err := parsePathID(chi.URLParam(r, "contentID"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid content id", nil)
		return
	}
	_, contents, err := h.boxSvc.GetBox(r.Context(), caller, boxID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	for _, c := range contents {
		if c.ID != contentID {
			continue
		}
		if c.ObjectKey == "" {
			response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "content has no stored object", nil)
			return
		}
		url, err := h.storageSvc.GenerateObjectURL(r.Context(), c.ObjectKey)
		if err != nil {
			response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "url generation failed", nil)
			return
		}
		response.JSON(w, r, http.StatusOK, map[string]any{"url": url})
		return
	}
	response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "content not found", nil)
}

func (h *BoxHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	var body struct {
		ItemName     string `json:"item_name"`
		Description  string `json:"description"`
		InsuredValue int64  `json:"insured_value"`
		Currency     string `json:"currency"`
		Company      string `json:"company"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	label, err := h.boxSvc.CreateLabel(r.Context(), caller, &domain.InsuranceLabel{
		ItemName:     body.ItemName,
		Description:  body.Description,
		InsuredValue: body.InsuredValue,
		Currency:     body.Currency,
		Company:      body.Company,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, label)
}

func (h *BoxHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	labels, err := h.boxSvc.ListLabels(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, labels)
}

func (h *BoxHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	labelID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid label id", nil)
		return
	}
	if err := h.boxSvc.DeleteLabel(r.Context(), caller, labelID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"label_id": labelID, "status": "deleted"})
}

func (h *BoxHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	contact, err := h.boxSvc.AddContact(r.Context(), caller, body.Email, body.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, contact)
}

func (h *BoxHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	contacts, err := h.boxSvc.ListContacts(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, contacts)
}
