// Dashboard HTTP handlers.
//
// GET /dashboard returns the four request aggregates (by lab, by status, by
// requester, top products), narrowed by optional query filters:
// from/to (RFC 3339 date), requester_id, product (substring).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JoaoPizoli/SatMaza/internal/repo"
	"github.com/JoaoPizoli/SatMaza/internal/utils"
)

// Dashboard returns the aggregate overview.
func (h *Handlers) Dashboard(c *gin.Context) {
	f, valid := dashboardFilter(c)
	if !valid {
		return
	}
	ov, err := h.dashSvc.Overview(c.Request.Context(), f)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ov)
}

// dashboardFilter parses the optional query filters shared by the dashboard
// aggregates. Dates accept "2006-01-02"; the to date is inclusive.
func dashboardFilter(c *gin.Context) (repo.DashboardFilter, bool) {
	var f repo.DashboardFilter

	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from must be yyyy-mm-dd")
			return f, false
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to must be yyyy-mm-dd")
			return f, false
		}
		end := t.AddDate(0, 0, 1)
		f.To = &end
	}
	if v := c.Query("requester_id"); v != "" {
		id := int64(utils.AtoiDefault(v, 0))
		if id <= 0 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "requester_id must be a positive integer")
			return f, false
		}
		f.RequesterID = &id
	}
	f.Product = c.Query("product")

	return f, true
}
