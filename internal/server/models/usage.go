package models

import "time"

// Session is one accounting record written by the RADIUS subsystem.
// BytesIn is upload (client → NAS), BytesOut is download.
type Session struct {
	ID        int64
	Username  string
	StartTime time.Time
	StopTime  *time.Time
	BytesIn   int64
	BytesOut  int64
	ClientIP  string
	ClientMAC string
	NASIP     string
}

// DailyUsage is a pre-aggregated per-account, per-day byte total.
type DailyUsage struct {
	Username string
	Date     time.Time
	BytesIn  int64
	BytesOut int64
}

// LastSession pairs an account with the start of its most recent session.
type LastSession struct {
	Account
	LastSessionTime *time.Time
}

// InactiveAccount is a row of the activity classification.
// LastSessionTime and DaysInactive are nil for accounts that never connected.
type InactiveAccount struct {
	Username        string
	Firstname       string
	Lastname        string
	Company         string
	LastSessionTime *time.Time
	DaysInactive    *int
}

// ActivitySummary splits accounts into active and inactive ones.
type ActivitySummary struct {
	TotalAccounts    int64
	ActiveCount      int64
	InactiveCount    int64
	ActivePercentage string
}

// DailyBytes is a per-day byte total as read from the store.
type DailyBytes struct {
	Date     time.Time
	BytesIn  int64
	BytesOut int64
}

// DailyUsagePoint is one entry of the network usage series.
type DailyUsagePoint struct {
	Date       time.Time
	DownloadGB float64
	UploadGB   float64
}

// ConsumerBytes is an all-time usage total per username. Name fields are
// empty when the username has no identity row.
type ConsumerBytes struct {
	Username   string
	Firstname  string
	Lastname   string
	Company    string
	BytesIn    int64
	BytesOut   int64
	TotalBytes int64
}

// TopConsumer is one row of the usage ranking.
type TopConsumer struct {
	Username   string
	Firstname  string
	Lastname   string
	Company    string
	DownloadGB float64
	UploadGB   float64
	TotalGB    float64
}

// LoginTrendPoint counts distinct usernames that started a session on Date.
type LoginTrendPoint struct {
	Date  time.Time
	Count int64
}

// OpenSession is a session without a stop time, as seen at query time.
type OpenSession struct {
	Username  string
	ClientIP  string
	ClientMAC string
	NASIP     string
	StartTime time.Time
	Elapsed   time.Duration
	BytesIn   int64
	BytesOut  int64
}

// AccountUsageDetail is the per-account drill-down.
// Last* fields are nil when the account has no sessions.
type AccountUsageDetail struct {
	Username      string
	Firstname     string
	Lastname      string
	Company       string
	PlanName      *string
	CreatedAt     time.Time
	TotalUpload   int64
	TotalDownload int64
	LastSessionAt *time.Time
	LastClientIP  *string
	LastClientMAC *string
}

// AccountProfile is an identity row joined with its plan name.
type AccountProfile struct {
	Account
	PlanName *string
}
