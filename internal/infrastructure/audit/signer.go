package audit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

// AttestationClaims are the claims of an evidence attestation token.
// AttestationClaims 是证据证明令牌中的声明。
type AttestationClaims struct {
	Asset        string `json:"asset"`
	Control      string `json:"control"`
	Verdict      string `json:"verdict"`
	EvidenceHash string `json:"evidence_sha256"`
	jwt.RegisteredClaims
}

// HMACSigner signs assessments with HMAC-SHA256 and issues an HS256 attestation
// token binding the verdict to the evidence hash.
// HMACSigner 使用 HMAC-SHA256 对评估签名，并签发将结论与证据哈希绑定的 HS256 证明令牌。
type HMACSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACSigner creates an HMACSigner. A zero ttl issues tokens without expiry.
func NewHMACSigner(secret, issuer string, ttl time.Duration) (*HMACSigner, error) {
	if secret == "" {
		return nil, errors.ErrConfiguration("attestation secret is empty")
	}
	if issuer == "" {
		issuer = constants.ServiceName
	}
	return &HMACSigner{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// SignAssessment returns the base64 HMAC-SHA256 of the assessment's JSON encoding.
func SignAssessment(a *models.Assessment, secret []byte) (string, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// EvidenceHash returns the hex SHA-256 of the rendered evidence text.
func EvidenceHash(evidence string) string {
	sum := sha256.Sum256([]byte(evidence))
	return hex.EncodeToString(sum[:])
}

// Sign implements service.EvidenceSigner.
func (s *HMACSigner) Sign(_ context.Context, a *models.Assessment) (string, string, error) {
	signature, err := SignAssessment(a, s.secret)
	if err != nil {
		return "", "", errors.WrapError(err, constants.ErrCodeInternal, "failed to sign assessment")
	}

	issuedAt := s.now()
	claims := AttestationClaims{
		Asset:        a.AssetName,
		Control:      a.ControlID,
		Verdict:      string(a.Verdict.Verdict),
		EvidenceHash: EvidenceHash(a.Verdict.Evidence),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       a.ID.String(),
			Subject:  a.ID.String(),
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(s.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", errors.WrapError(err, constants.ErrCodeInternal, "failed to sign attestation")
	}
	return signature, token, nil
}

// Verify parses an attestation token issued by this signer.
func (s *HMACSigner) Verify(token string) (*AttestationClaims, error) {
	claims := &AttestationClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeInvalidRequest, "invalid attestation")
	}
	return claims, nil
}

var _ service.EvidenceSigner = (*HMACSigner)(nil)

//Personal.AI order the ending
