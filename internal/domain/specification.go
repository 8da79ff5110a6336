package domain

import "time"

// Specification is the canonical technical description of a hardware model,
// independent of any single retailer listing.
type Specification struct {
	ID               string         `json:"id"`
	ProductName      string         `json:"productName"`
	CleanProductName string         `json:"cleanProductName"`
	Category         Category       `json:"category"`
	Brand            string         `json:"brand,omitempty"`
	SpecFields       map[string]any `json:"specFields,omitempty"`
	Source           string         `json:"source"`
	VerifiedBy       string         `json:"verifiedBy,omitempty"`
	VerifiedAt       *time.Time     `json:"verifiedAt,omitempty"`
	IsActive         bool           `json:"isActive"`
	Matches          []MatchRecord  `json:"matches"`
	Stats            MatchStats     `json:"stats"`
	// Version increases on every write; match-list replacement is conditional on it
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MatchStats summarizes a specification's matching history
type MatchStats struct {
	TotalMatches  int        `json:"totalMatches"`
	LastMatchedAt *time.Time `json:"lastMatchedAt,omitempty"`
	ViewCount     int        `json:"viewCount"`
}

// MatchRecord asserts that a product listing is the specification's model.
// Confidence is the scorer output at match time and is not recomputed unless
// cleanup runs.
type MatchRecord struct {
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Confidence  float64   `json:"confidence"`
	Similarity  float64   `json:"similarity"`
	Source      string    `json:"source"`
	MatchedAt   time.Time `json:"matchedAt"`
	ManualMatch bool      `json:"manualMatch"`
}

// SpecificationFilter selects specifications for listing and bulk passes
type SpecificationFilter struct {
	Category Category
	// ProductID restricts to specifications holding a match for that product
	ProductID  string
	ActiveOnly bool
	Limit      int
}

// HasMatch reports whether productID is already in the match list
func (s *Specification) HasMatch(productID string) bool {
	return s.MatchIndex(productID) >= 0
}

// MatchIndex returns the position of productID in the match list, or -1
func (s *Specification) MatchIndex(productID string) int {
	for i, m := range s.Matches {
		if m.ProductID == productID {
			return i
		}
	}
	return -1
}

// MatchedProductIDs returns the product ids in match-list order
func (s *Specification) MatchedProductIDs() []string {
	ids := make([]string, 0, len(s.Matches))
	for _, m := range s.Matches {
		ids = append(ids, m.ProductID)
	}
	return ids
}

// Clone returns a deep copy so callers never share the match slice or field map
func (s *Specification) Clone() *Specification {
	if s == nil {
		return nil
	}
	c := *s
	if s.Matches != nil {
		c.Matches = make([]MatchRecord, len(s.Matches))
		copy(c.Matches, s.Matches)
	}
	if s.SpecFields != nil {
		c.SpecFields = make(map[string]any, len(s.SpecFields))
		for k, v := range s.SpecFields {
			c.SpecFields[k] = v
		}
	}
	if s.Stats.LastMatchedAt != nil {
		t := *s.Stats.LastMatchedAt
		c.Stats.LastMatchedAt = &t
	}
	if s.VerifiedAt != nil {
		t := *s.VerifiedAt
		c.VerifiedAt = &t
	}
	return &c
}
