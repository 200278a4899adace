package discovery

import (
	"strings"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/signing"
)

// ProtocolVersion is the UCP revision this server speaks.
const ProtocolVersion = "2026-01-23"

// Profile is the document served from /.well-known/ucp. Registries are keyed
// by reverse-domain name per the UCP entity pattern.
type Profile struct {
	UCP Metadata `json:"ucp"`
}

// Metadata carries the version plus the service, capability, and payment
// handler registries.
type Metadata struct {
	Version         string                      `json:"version"`
	Services        map[string][]Service        `json:"services,omitempty"`
	Capabilities    map[string][]Capability     `json:"capabilities,omitempty"`
	PaymentHandlers map[string][]PaymentHandler `json:"payment_handlers,omitempty"`
	Currency        string                      `json:"currency,omitempty"`
	SigningKeys     *signing.JWKS               `json:"signing_keys,omitempty"`
}

// Service is one transport binding for a capability.
type Service struct {
	Version   string `json:"version"`
	Transport string `json:"transport"`
	Endpoint  string `json:"endpoint,omitempty"`
}

// Capability declares one supported UCP capability.
type Capability struct {
	Version string `json:"version"`
	Extends string `json:"extends,omitempty"`
}

// PaymentHandler describes one payment collection strategy.
type PaymentHandler struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Config  any    `json:"config,omitempty"`
}

// Builder assembles the discovery profile from merchant configuration.
type Builder struct {
	baseURL     string
	currency    string
	signer      *signing.Signer
	squareReady bool
}

// NewBuilder builds a discovery profile builder. signer may be nil when no
// signing seed is configured; the key set is then omitted.
func NewBuilder(merchantCfg config.MerchantConfig, squareCfg config.SquareConfig, signer *signing.Signer) *Builder {
	return &Builder{
		baseURL:     strings.TrimRight(merchantCfg.BaseURL, "/"),
		currency:    strings.ToUpper(merchantCfg.Currency),
		signer:      signer,
		squareReady: squareCfg.Configured(),
	}
}

// Profile returns the current discovery document.
func (b *Builder) Profile() Profile {
	metadata := Metadata{
		Version:  ProtocolVersion,
		Currency: b.currency,
		Services: map[string][]Service{
			"dev.ucp.shopping": {{
				Version:   ProtocolVersion,
				Transport: "rest",
				Endpoint:  b.baseURL + "/ucp/v1",
			}},
		},
		Capabilities: map[string][]Capability{
			"dev.ucp.shopping.checkout": {{Version: ProtocolVersion}},
			"dev.ucp.shopping.fulfillment": {{
				Version: ProtocolVersion,
				Extends: "dev.ucp.shopping.checkout",
			}},
			"dev.ucp.shopping.order": {{Version: ProtocolVersion}},
		},
	}
	if b.squareReady {
		metadata.PaymentHandlers = map[string][]PaymentHandler{
			"com.squareup": {{
				ID:      "com.squareup.card",
				Version: ProtocolVersion,
			}},
		}
	}
	if b.signer != nil {
		keys := b.signer.PublicJWKS()
		metadata.SigningKeys = &keys
	}
	return metadata.wrap()
}

func (m Metadata) wrap() Profile {
	return Profile{UCP: m}
}
