package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"contactbook/internal/contact/model"
	"contactbook/internal/contact/service"
	"contactbook/middleware"
	"contactbook/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// 10 MB is plenty for a CSV upload.
const maxImportSize = 10 << 20

type ContactHandler struct {
	Service  *service.ContactService
	Validate *validator.Validate
}

func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{
		Service:  svc,
		Validate: validator.New(),
	}
}

func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	created, err := h.Service.Create(callerID, req)
	if err != nil {
		h.serviceError(w, err, "create contact")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ContactHandler) GetContacts(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)

	contacts, err := h.Service.List(callerID)
	if err != nil {
		h.serviceError(w, err, "list contacts")
		return
	}
	writeJSON(w, http.StatusOK, model.ContactListResponse{Contacts: contacts})
}

func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)
	id := mux.Vars(r)["id"]

	c, err := h.Service.Get(callerID, id)
	if err != nil {
		h.serviceError(w, err, "get contact")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "no id specified.")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	updated, err := h.Service.Update(callerID, req)
	if err != nil {
		h.serviceError(w, err, "update contact")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)
	id := mux.Vars(r)["id"]

	deleted, remaining, err := h.Service.Delete(callerID, id)
	if err != nil {
		h.serviceError(w, err, "delete contact")
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteContactResponse{Contact: deleted, MyContacts: remaining})
}

func (h *ContactHandler) MassDelete(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.MassDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDs == nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing IDs")
		return
	}

	deleted, err := h.Service.DeleteMany(callerID, req.IDs)
	if err != nil {
		h.serviceError(w, err, "mass delete contacts")
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Deleted %d contacts", deleted),
	})
}

func (h *ContactHandler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error in file uploaded.")
		return
	}
	defer file.Close()

	imported, err := h.Service.Import(callerID, file)
	if err != nil {
		h.serviceError(w, err, "import contacts")
		return
	}
	writeJSON(w, http.StatusCreated, model.MessageResponse{
		Message: fmt.Sprintf("Imported %d contacts", imported),
	})
}

func (h *ContactHandler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(middleware.UserIDKey).(string)

	data, err := h.Service.Export(callerID)
	if err != nil {
		h.serviceError(w, err, "export contacts")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// serviceError maps the service's sentinel errors onto HTTP statuses.
// Anything unexpected is logged and surfaced as a generic 500.
func (h *ContactHandler) serviceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrBadID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Sugar.Errorf("Failed to %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Server Error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Sprintf("%s failed on the %q rule", strings.ToLower(e.Field()), e.Tag())
	}
	return "Invalid request body"
}
