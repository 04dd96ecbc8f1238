package rdapnorm

import "encoding/json"

// CacheEntry is the wire shape of one cached, signed RDAP document. Entries
// are created only by the secure cache's Set path, which computes the
// signature itself — callers can never supply one. An entry is servable iff
// every validation layer passes; any single failure is treated as full
// failure and the entry is evicted.
type CacheEntry struct {
	Data              json.RawMessage   `json:"data"`
	RegistrySignature string            `json:"registrySignature"` // base64 HMAC-SHA256
	Timestamp         int64             `json:"timestamp"`         // epoch ms
	TTL               int64             `json:"ttl"`               // ms
	ValidationContext ValidationContext `json:"validationContext"`
	SecurityMetadata  SecurityMetadata  `json:"securityMetadata"`
}

// ValidationContext binds an entry to the request that produced it.
type ValidationContext struct {
	RegistryID    string `json:"registryId"`
	BootstrapHash string `json:"bootstrapHash,omitempty"`
	RequestHash   string `json:"requestHash,omitempty"`
	TenantID      string `json:"tenantId,omitempty"`
}

// SecurityMetadata records transport-level provenance captured at fetch time.
type SecurityMetadata struct {
	OriginIP             string `json:"originIP,omitempty"`
	TLSFingerprint       string `json:"tlsFingerprint,omitempty"`
	CertificateChainHash string `json:"certificateChainHash,omitempty"`
	ResponseSize         int64  `json:"responseSize"`
}
