package router

import (
	"database/sql"
	"net/http"

	handler "contactbook/internal/contact"
	"contactbook/internal/contact/repository"
	"contactbook/internal/contact/service"
	"contactbook/middleware"
	"contactbook/socket"
	"contactbook/web"

	"github.com/gorilla/mux"
)

func Setup(db *sql.DB, hub *socket.Hub) http.Handler {
	r := mux.NewRouter()

	// Change feed
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID := req.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, req, userID)
	})
	r.Handle("/ws", middleware.AuthMiddleware(wsHandler))

	// REST API
	repo := repository.NewContactRepository(db)
	svc := service.NewContactService(repo, hub)
	h := handler.NewContactHandler(svc)
	auth := middleware.AuthMiddleware

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/contact", auth(http.HandlerFunc(h.CreateContact))).Methods(http.MethodPost)
	api.Handle("/contact", auth(http.HandlerFunc(h.UpdateContact))).Methods(http.MethodPut)
	api.Handle("/contact/{id}", auth(http.HandlerFunc(h.GetContact))).Methods(http.MethodGet)
	api.Handle("/mycontacts", auth(http.HandlerFunc(h.GetContacts))).Methods(http.MethodGet)
	api.Handle("/delete/{id}", auth(http.HandlerFunc(h.DeleteContact))).Methods(http.MethodDelete)
	api.Handle("/mass-delete", auth(http.HandlerFunc(h.MassDelete))).Methods(http.MethodDelete)
	api.Handle("/import", auth(http.HandlerFunc(h.ImportContacts))).Methods(http.MethodPost)
	api.Handle("/export", auth(http.HandlerFunc(h.ExportContacts))).Methods(http.MethodGet)

	// List-view UI
	r.PathPrefix("/").Handler(web.Handler())

	return middleware.CORSMiddleware(r)
}
