// Package archive stores payment verification evidence in S3-compatible
// object storage for audit.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
)

// Archiver persists the evidence of a recorded contribution.
type Archiver interface {
	Archive(ctx context.Context, c *models.Contribution) error
}

// Nop is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, *models.Contribution) error { return nil }

// Evidence is the JSON document written per contribution.
type Evidence struct {
	ContributionID    string    `json:"contribution_id"`
	RecipientEmail    string    `json:"recipient_email"`
	RecipientUsername string    `json:"recipient_username"`
	SupporterName     string    `json:"supporter_name"`
	Amount            string    `json:"amount"`
	OrderID           string    `json:"order_id"`
	PaymentID         string    `json:"payment_id"`
	Signature         string    `json:"signature"`
	Status            string    `json:"status"`
	VerifiedAt        time.Time `json:"verified_at"`
}

func NewEvidence(c *models.Contribution) Evidence {
	return Evidence{
		ContributionID:    c.ID,
		RecipientEmail:    c.RecipientEmail,
		RecipientUsername: c.RecipientUsername,
		SupporterName:     c.SupporterName,
		Amount:            c.Amount.StringFixed(2),
		OrderID:           c.GatewayOrderID,
		PaymentID:         c.GatewayPaymentID,
		Signature:         c.GatewaySignature,
		Status:            string(c.Status),
		VerifiedAt:        c.VerifiedAt.UTC(),
	}
}

// ObjectKey places evidence under its verification date, one object per payment.
func ObjectKey(c *models.Contribution) string {
	d := c.VerifiedAt.UTC()
	return fmt.Sprintf("evidence/%d/%02d/%02d/%s.json", d.Year(), d.Month(), d.Day(), c.GatewayPaymentID)
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Archiver struct {
	bucket string
	client objectPutter
}

func NewS3Archiver(ctx context.Context, c *sc.Config) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Archiver{bucket: c.S3Bucket, client: client}, nil
}

// New returns an S3Archiver when a bucket is configured and Nop otherwise.
func New(ctx context.Context, c *sc.Config) (Archiver, error) {
	if c.S3Bucket == "" {
		return Nop{}, nil
	}
	return NewS3Archiver(ctx, c)
}

func (a *S3Archiver) Archive(ctx context.Context, c *models.Contribution) error {
	body, err := json.Marshal(NewEvidence(c))
	if err != nil {
		return err
	}

	key := ObjectKey(c)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
