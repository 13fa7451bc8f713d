package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/google/uuid"
)

// Report kinds, also used as URL path segments.
const (
	ReportInactiveUsers = "inactive-users"
	ReportTopUsage      = "top-usage"
)

// TopUsageReportLimit is the number of rows of the top usage report.
const TopUsageReportLimit = 50

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ReportService renders the CSV reports and archives them to object storage.
type ReportService struct {
	activity *ActivityService
	usage    *UsageService
	config   *config.Config
	clock    quartz.Clock
	log      logging.Logger
}

func NewReportService(activity *ActivityService, usage *UsageService, cfg *config.Config, clock quartz.Clock, log logging.Logger) *ReportService {
	return &ReportService{activity: activity, usage: usage, config: cfg, clock: clock, log: log}
}

// ReportFilename is the download name of a report kind.
func ReportFilename(kind string) string {
	switch kind {
	case ReportInactiveUsers:
		return "inactive-users-report.csv"
	case ReportTopUsage:
		return "top-data-usage-report.csv"
	}
	return kind + ".csv"
}

// WriteReport renders the report of the given kind as CSV into w.
func (s *ReportService) WriteReport(ctx context.Context, kind string, w io.Writer) error {
	switch kind {
	case ReportInactiveUsers:
		return s.writeInactiveUsers(ctx, w)
	case ReportTopUsage:
		return s.writeTopUsage(ctx, w)
	}
	return common.Validationf("unknown report %q", kind)
}

func (s *ReportService) writeInactiveUsers(ctx context.Context, w io.Writer) error {
	rows, err := s.activity.ClassifyActivity(ctx, s.config.InactiveThresholdDays)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Username", "First Name", "Last Name", "Company", "Last Login", "Days Inactive"})
	for _, r := range rows {
		lastLogin, days := "Never", ""
		if r.LastSessionTime != nil {
			lastLogin = r.LastSessionTime.In(s.clock.Now().Location()).Format(time.DateOnly)
		}
		if r.DaysInactive != nil {
			days = strconv.Itoa(*r.DaysInactive)
		}
		_ = cw.Write([]string{r.Username, r.Firstname, r.Lastname, r.Company, lastLogin, days})
	}
	cw.Flush()
	return cw.Error()
}

func (s *ReportService) writeTopUsage(ctx context.Context, w io.Writer) error {
	rows, err := s.usage.TopConsumers(ctx, TopUsageReportLimit)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Username", "First Name", "Last Name", "Total Download (GB)", "Total Upload (GB)", "Total Usage (GB)"})
	for _, r := range rows {
		_ = cw.Write([]string{r.Username, r.Firstname, r.Lastname, formatGB(r.DownloadGB), formatGB(r.UploadGB), formatGB(r.TotalGB)})
	}
	cw.Flush()
	return cw.Error()
}

func formatGB(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ArchiveReport renders the report, uploads it to the configured bucket and
// returns its object key with a presigned download URL.
func (s *ReportService) ArchiveReport(ctx context.Context, kind string) (string, string, error) {
	if s.config.S3Bucket == "" {
		return "", "", common.ErrArchiveDisabled
	}

	var buf bytes.Buffer
	if err := s.WriteReport(ctx, kind, &buf); err != nil {
		return "", "", err
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return "", "", fmt.Errorf("error creating s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := s.reportStorageKey(kind)

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		s.log.Error(ctx, "report upload failed", "kind", kind, "key", key, "error", err)
		return "", "", fmt.Errorf("error uploading report: %w", err)
	}

	req, err := presignGetObject(s3.NewPresignClient(client), ctx, &s3.GetObjectInput{
		Bucket:                     &bucket,
		Key:                        &key,
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", ReportFilename(kind))),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("error presigning report url: %w", err)
	}

	s.log.Info(ctx, "report archived", "kind", kind, "key", key, "bytes", buf.Len())
	return key, req.URL, nil
}

func (s *ReportService) reportStorageKey(kind string) string {
	d := s.clock.Now()
	return fmt.Sprintf("reports/%s/%d/%02d/%02d/%v.csv", kind, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ReportService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}
