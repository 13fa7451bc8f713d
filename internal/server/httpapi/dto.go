package httpapi

import (
	"time"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
)

const dateLayout = time.DateOnly

type accountResponse struct {
	Username  string    `json:"username"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Company   string    `json:"company"`
	PlanID    *int64    `json:"plan_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		Username:  a.Username,
		Firstname: a.Firstname,
		Lastname:  a.Lastname,
		Company:   a.Company,
		PlanID:    a.PlanID,
		CreatedAt: a.CreatedAt,
	}
}

type planResponse struct {
	ID        int64    `json:"plan_id"`
	Name      string   `json:"name"`
	UnitPrice *float64 `json:"unit_price"`
	Unit      *string  `json:"unit"`
}

type accountDetailResponse struct {
	Username      string     `json:"username"`
	Firstname     string     `json:"firstname"`
	Lastname      string     `json:"lastname"`
	Company       string     `json:"company"`
	PlanName      *string    `json:"plan_name"`
	CreatedAt     time.Time  `json:"created_at"`
	TotalUpload   int64      `json:"total_upload"`
	TotalDownload int64      `json:"total_download"`
	LastSessionAt *time.Time `json:"last_session_at"`
	LastClientIP  *string    `json:"last_client_ip"`
	LastClientMAC *string    `json:"last_client_mac"`
}

type summaryResponse struct {
	TotalAccounts    int64  `json:"total_accounts"`
	ActiveCount      int64  `json:"active_count"`
	InactiveCount    int64  `json:"inactive_count"`
	ActivePercentage string `json:"active_percentage"`
}

type trendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type usagePoint struct {
	Date       string  `json:"date"`
	DownloadGB float64 `json:"download_gb"`
	UploadGB   float64 `json:"upload_gb"`
}

type inactiveAccountResponse struct {
	Username        string     `json:"username"`
	Firstname       string     `json:"firstname"`
	Lastname        string     `json:"lastname"`
	Company         string     `json:"company"`
	LastSessionTime *time.Time `json:"last_session_time"`
	DaysInactive    *int       `json:"days_inactive"`
}

type topConsumerResponse struct {
	Username   string  `json:"username"`
	Firstname  string  `json:"firstname"`
	Lastname   string  `json:"lastname"`
	Company    string  `json:"company"`
	DownloadGB float64 `json:"download_gb"`
	UploadGB   float64 `json:"upload_gb"`
	TotalGB    float64 `json:"total_gb"`
}

type openSessionResponse struct {
	Username       string    `json:"username"`
	ClientIP       string    `json:"client_ip"`
	ClientMAC      string    `json:"client_mac"`
	NASIP          string    `json:"nas_ip"`
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	BytesIn        int64     `json:"bytes_in"`
	BytesOut       int64     `json:"bytes_out"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
}

func toTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt,
		Username:     p.Username,
		Role:         p.Role,
	}
}

type operatorResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toOperatorResponse(o *models.Operator) operatorResponse {
	return operatorResponse{
		ID:        o.ID,
		Username:  o.Username,
		Fullname:  o.Fullname,
		Role:      o.Role,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}
