package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	defaultTrendDays = 30
	defaultUsageDays = 30
	defaultTopLimit  = 5
)

// intQuery reads an integer query parameter, returning def when it is absent.
func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.Validationf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func (h *handler) stats(c *gin.Context) {
	s, err := h.deps.Activity.SummarizeActivity(c.Request.Context())
	if err != nil {
		h.writeError(c, "activity summary", err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		TotalAccounts:    s.TotalAccounts,
		ActiveCount:      s.ActiveCount,
		InactiveCount:    s.InactiveCount,
		ActivePercentage: s.ActivePercentage,
	})
}

func (h *handler) loginTrend(c *gin.Context) {
	days, err := intQuery(c, "days", defaultTrendDays)
	if err != nil {
		h.writeError(c, "login trend", err)
		return
	}
	points, err := h.deps.Usage.LoginTrend(c.Request.Context(), days)
	if err != nil {
		h.writeError(c, "login trend", err)
		return
	}
	out := make([]trendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, trendPoint{Date: p.Date.Format(dateLayout), Count: p.Count})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) inactive(c *gin.Context) {
	days, err := intQuery(c, "days", h.deps.InactiveThresholdDays)
	if err != nil {
		h.writeError(c, "inactive accounts", err)
		return
	}
	rows, err := h.deps.Activity.ClassifyActivity(c.Request.Context(), days)
	if err != nil {
		h.writeError(c, "inactive accounts", err)
		return
	}
	out := make([]inactiveAccountResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, inactiveAccountResponse{
			Username:        r.Username,
			Firstname:       r.Firstname,
			Lastname:        r.Lastname,
			Company:         r.Company,
			LastSessionTime: r.LastSessionTime,
			DaysInactive:    r.DaysInactive,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) dailyUsage(c *gin.Context) {
	days, err := intQuery(c, "days", defaultUsageDays)
	if err != nil {
		h.writeError(c, "daily usage", err)
		return
	}
	points, err := h.deps.Usage.DailyUsageSeries(c.Request.Context(), days)
	if err != nil {
		h.writeError(c, "daily usage", err)
		return
	}
	out := make([]usagePoint, 0, len(points))
	for _, p := range points {
		out = append(out, usagePoint{Date: p.Date.Format(dateLayout), DownloadGB: p.DownloadGB, UploadGB: p.UploadGB})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) topConsumers(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultTopLimit)
	if err != nil {
		h.writeError(c, "top consumers", err)
		return
	}
	rows, err := h.deps.Usage.TopConsumers(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, "top consumers", err)
		return
	}
	out := make([]topConsumerResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, topConsumerResponse{
			Username:   r.Username,
			Firstname:  r.Firstname,
			Lastname:   r.Lastname,
			Company:    r.Company,
			DownloadGB: r.DownloadGB,
			UploadGB:   r.UploadGB,
			TotalGB:    r.TotalGB,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) online(c *gin.Context) {
	sessions, err := h.deps.Sessions.OpenSessions(c.Request.Context())
	if err != nil {
		h.writeError(c, "open sessions", err)
		return
	}
	out := make([]openSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, openSessionResponse{
			Username:       s.Username,
			ClientIP:       s.ClientIP,
			ClientMAC:      s.ClientMAC,
			NASIP:          s.NASIP,
			StartTime:      s.StartTime,
			ElapsedSeconds: int64(s.Elapsed.Seconds()),
			BytesIn:        s.BytesIn,
			BytesOut:       s.BytesOut,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) health(c *gin.Context) {
	if err := h.deps.DB.PingContext(c.Request.Context()); err != nil {
		h.log.Error(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
