package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/searchlogs"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func ListSearchLogs(svc searchlogs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := searchlogs.ListParams{
			Limit:  page.Limit,
			Cursor: page.Cursor,
			Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		}
		result, err := svc.List(r.Context(), middleware.RoleFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
