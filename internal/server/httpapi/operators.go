package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type createOperatorRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	Role     string `json:"role"`
}

func (h *handler) login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	pair, err := h.deps.Operators.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		h.writeError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(pair))
}

func (h *handler) refresh(c *gin.Context) {
	var body refreshRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	pair, err := h.deps.Operators.RefreshToken(c.Request.Context(), body.RefreshToken)
	if err != nil {
		h.writeError(c, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(pair))
}

func (h *handler) listOperators(c *gin.Context) {
	ops, err := h.deps.Operators.ListOperators(c.Request.Context())
	if err != nil {
		h.writeError(c, "list operators", err)
		return
	}
	out := make([]operatorResponse, 0, len(ops))
	for _, o := range ops {
		out = append(out, toOperatorResponse(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) createOperator(c *gin.Context) {
	var body createOperatorRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	op, err := h.deps.Operators.CreateOperator(c.Request.Context(), services.NewOperator{
		Username: body.Username,
		Password: body.Password,
		Fullname: body.Fullname,
		Role:     body.Role,
	})
	if err != nil {
		h.writeError(c, "create operator", err)
		return
	}
	c.JSON(http.StatusCreated, toOperatorResponse(op))
}
