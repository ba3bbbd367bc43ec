package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
)

// renewalSkew is how long before the lease expiry a renewal is triggered,
// so a lease is never handed out moments before it dies mid-request.
const renewalSkew = time.Minute

// DefaultLeaseDuration is the requested lifetime of an assumed-role lease.
const DefaultLeaseDuration = time.Hour

// AssumeRoleAPI is the subset of the STS client used by the Provisioner.
type AssumeRoleAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Lease is one short-lived credential set obtained via role assumption.
// It is owned by the Provisioner and never shared across providers.
type Lease struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ExpiresAt       time.Time
}

// expired reports whether the lease is past (or within the renewal skew of)
// its expiry at the given time.
func (l *Lease) expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt.Add(-renewalSkew))
}

// Config contains the role-assumption parameters.
type Config struct {
	// RoleARN is the role identifier to assume.
	RoleARN string

	// SessionName is the base name for role sessions. A unique suffix is
	// appended per exchange.
	SessionName string

	// Duration is the requested lease lifetime (defaults to one hour).
	Duration time.Duration
}

// Provisioner obtains and refreshes short-lived credentials via STS role
// assumption. It is a small state machine: no lease, leased, expired.
// Expiry is detected lazily, checked immediately before each use; there is
// no background refresh timer.
//
// Provisioner implements aws.CredentialsProvider, so it plugs directly into
// SDK clients.
type Provisioner struct {
	mu     sync.Mutex
	config Config
	sts    AssumeRoleAPI
	lease  *Lease
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

var _ aws.CredentialsProvider = (*Provisioner)(nil)

// NewProvisioner creates a provisioner for the given role.
func NewProvisioner(client AssumeRoleAPI, config Config) (*Provisioner, error) {
	if config.RoleARN == "" {
		return nil, &providers.ConfigError{
			Provider: "bedrock",
			Field:    "role_arn",
			Message:  "role ARN is required when role assumption is enabled",
		}
	}
	if config.SessionName == "" {
		config.SessionName = "llm-cost-exporter"
	}
	if config.Duration <= 0 {
		config.Duration = DefaultLeaseDuration
	}

	return &Provisioner{
		config: config,
		sts:    client,
		logger: slog.Default().With("component", "credentials.provisioner"),
		now:    time.Now,
	}, nil
}

// Retrieve returns valid credentials, performing a role-assumption exchange
// when there is no lease or the current one has expired. Two consecutive
// uses within the lease's validity window reuse the lease without a second
// exchange.
//
// If the exchange fails while an unexpired lease is still held, that lease
// is returned as a fallback; otherwise the failure propagates as a
// ConfigError and the caller skips its fetch for this tick.
func (p *Provisioner) Retrieve(ctx context.Context) (aws.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.lease != nil && !p.lease.expired(now) {
		return p.lease.credentials(), nil
	}

	lease, err := p.exchange(ctx)
	if err != nil {
		// Keep serving the previous lease only while it is still valid.
		if p.lease != nil && p.lease.ExpiresAt.After(now) {
			p.logger.Warn("role assumption failed, falling back to unexpired lease",
				"role_arn", p.config.RoleARN,
				"lease_expires_at", p.lease.ExpiresAt,
				"error", err,
			)
			return p.lease.credentials(), nil
		}
		return aws.Credentials{}, err
	}

	p.lease = lease
	p.logger.Info("credential lease renewed",
		"role_arn", p.config.RoleARN,
		"expires_at", lease.ExpiresAt,
	)

	return lease.credentials(), nil
}

// exchange performs one role-assumption call and validates the response.
func (p *Provisioner) exchange(ctx context.Context) (*Lease, error) {
	sessionName := fmt.Sprintf("%s-%s", p.config.SessionName, uuid.NewString()[:8])

	out, err := p.sts.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(p.config.RoleARN),
		RoleSessionName: aws.String(sessionName),
		DurationSeconds: aws.Int32(int32(p.config.Duration.Seconds())),
	})
	if err != nil {
		return nil, &providers.ConfigError{
			Provider: "bedrock",
			Field:    "role_arn",
			Message:  fmt.Sprintf("role assumption exchange failed: %v", err),
		}
	}

	creds := out.Credentials
	if creds == nil || creds.AccessKeyId == nil || creds.SecretAccessKey == nil ||
		creds.SessionToken == nil || creds.Expiration == nil {
		return nil, &providers.ConfigError{
			Provider: "bedrock",
			Field:    "role_arn",
			Message:  "role assumption response is missing required credential fields",
		}
	}

	return &Lease{
		AccessKeyID:     aws.ToString(creds.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.SecretAccessKey),
		SessionToken:    aws.ToString(creds.SessionToken),
		ExpiresAt:       aws.ToTime(creds.Expiration),
	}, nil
}

// CurrentLease returns a copy of the current lease, if any. It exists for
// observability and tests; callers must go through Retrieve for use.
func (p *Provisioner) CurrentLease() (Lease, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lease == nil {
		return Lease{}, false
	}
	return *p.lease, true
}

// credentials converts the lease into SDK credentials.
func (l *Lease) credentials() aws.Credentials {
	return aws.Credentials{
		AccessKeyID:     l.AccessKeyID,
		SecretAccessKey: l.SecretAccessKey,
		SessionToken:    l.SessionToken,
		CanExpire:       true,
		Expires:         l.ExpiresAt,
		Source:          "llm-cost-exporter/assume-role",
	}
}
