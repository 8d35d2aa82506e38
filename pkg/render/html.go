package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-templating/pkg/output"
	"github.com/goliatone/go-templating/pkg/template"
)

var (
	ugcPolicyOnce sync.Once
	ugcPolicy     *bluemonday.Policy
)

func defaultPolicy() *bluemonday.Policy {
	ugcPolicyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy
}

// SanitizedHTMLRenderer renders like StringRenderer and then strips markup the
// policy does not allow. Use it when templates interpolate untrusted HTML.
type SanitizedHTMLRenderer struct {
	Policy *bluemonday.Policy
}

var _ Named = SanitizedHTMLRenderer{}

// NewSanitizedHTMLRenderer returns a renderer using policy, or bluemonday's
// UGC policy when policy is nil.
func NewSanitizedHTMLRenderer(policy *bluemonday.Policy) SanitizedHTMLRenderer {
	return SanitizedHTMLRenderer{Policy: policy}
}

// Name returns "html".
func (SanitizedHTMLRenderer) Name() string {
	return "html"
}

func (SanitizedHTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render executes unit and sanitizes the result.
func (r SanitizedHTMLRenderer) Render(unit template.Template, data template.Data) (string, error) {
	raw, err := execute(unit, data, output.NewHTMLCollectionWriter())
	if err != nil {
		return "", err
	}
	policy := r.Policy
	if policy == nil {
		policy = defaultPolicy()
	}
	return policy.Sanitize(raw), nil
}
