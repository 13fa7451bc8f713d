package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
)

type createAccountRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Company   string `json:"company"`
	PlanID    *int64 `json:"plan_id"`
}

// updateAccountRequest mirrors models.AccountPatch: absent keys stay nil.
type updateAccountRequest struct {
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Company   *string `json:"company"`
	PlanID    *int64  `json:"plan_id"`
	ClearPlan bool    `json:"clear_plan"`
	Password  *string `json:"password"`
}

func (h *handler) listAccounts(c *gin.Context) {
	accounts, err := h.deps.Accounts.ListAccounts(c.Request.Context())
	if err != nil {
		h.writeError(c, "list accounts", err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getAccount(c *gin.Context) {
	d, err := h.deps.Sessions.AccountUsageDetail(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, "account detail", err)
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, accountDetailResponse{
		Username:      d.Username,
		Firstname:     d.Firstname,
		Lastname:      d.Lastname,
		Company:       d.Company,
		PlanName:      d.PlanName,
		CreatedAt:     d.CreatedAt,
		TotalUpload:   d.TotalUpload,
		TotalDownload: d.TotalDownload,
		LastSessionAt: d.LastSessionAt,
		LastClientIP:  d.LastClientIP,
		LastClientMAC: d.LastClientMAC,
	})
}

func (h *handler) createAccount(c *gin.Context) {
	var body createAccountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.deps.Accounts.CreateAccount(c.Request.Context(), models.NewAccount{
		Username:  body.Username,
		Password:  body.Password,
		Firstname: body.Firstname,
		Lastname:  body.Lastname,
		Company:   body.Company,
		PlanID:    body.PlanID,
	})
	if err != nil {
		h.writeError(c, "create account", err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResponse(a))
}

func (h *handler) updateAccount(c *gin.Context) {
	var body updateAccountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.deps.Accounts.UpdateAccount(c.Request.Context(), c.Param("username"), models.AccountPatch{
		Firstname: body.Firstname,
		Lastname:  body.Lastname,
		Company:   body.Company,
		PlanID:    body.PlanID,
		ClearPlan: body.ClearPlan,
		Password:  body.Password,
	})
	if err != nil {
		h.writeError(c, "update account", err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(a))
}

func (h *handler) deleteAccount(c *gin.Context) {
	if err := h.deps.Accounts.DeleteAccount(c.Request.Context(), c.Param("username")); err != nil {
		h.writeError(c, "delete account", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listPlans(c *gin.Context) {
	plans, err := h.deps.Accounts.ListPlans(c.Request.Context())
	if err != nil {
		h.writeError(c, "list plans", err)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{ID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, Unit: p.Unit})
	}
	c.JSON(http.StatusOK, out)
}
