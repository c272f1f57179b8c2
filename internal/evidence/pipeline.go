// SPDX-License-Identifier: Apache-2.0

package evidence

// Pipeline extracts reference candidates from any capability's payload: the
// generic fields first, then every registered extractor that handles the
// capability, in registration order.
type Pipeline struct {
	extractors []Extractor
}

// NewPipeline creates a Pipeline with the provided extractors.
func NewPipeline(extractors ...Extractor) *Pipeline {
	return &Pipeline{extractors: extractors}
}

// Extract returns the normalized candidates found in structured. Candidates
// without a citation are dropped; duplicates are left for the Map to resolve.
func (p *Pipeline) Extract(capability string, structured map[string]any) []Reference {
	if len(structured) == 0 {
		return nil
	}
	raw := genericReferences(structured)
	for _, extractor := range p.extractors {
		if extractor.CanHandle(capability) {
			raw = append(raw, extractor.Extract(structured)...)
		}
	}

	refs := make([]Reference, 0, len(raw))
	for _, r := range raw {
		if ref, ok := NewReference(r.Citation, r.Title, r.URL); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// RegisteredExtractors returns the names of all currently registered extractors.
func (p *Pipeline) RegisteredExtractors() []string {
	names := make([]string, len(p.extractors))
	for i, extractor := range p.extractors {
		names[i] = extractor.Name()
	}
	return names
}

// genericReferences applies to every capability: a top-level ref, and the
// Hebrew-script ref from metadata when present.
func genericReferences(structured map[string]any) []Reference {
	title, _ := structured["title"].(string)
	link, _ := structured["url"].(string)

	var refs []Reference
	if ref, _ := structured["ref"].(string); ref != "" {
		refs = append(refs, Reference{Citation: ref, Title: title, URL: link})
	}
	if meta, ok := structured["metadata"].(map[string]any); ok {
		if heRef, _ := meta["heRef"].(string); heRef != "" {
			refs = append(refs, Reference{Citation: heRef, Title: title, URL: link})
		}
	}
	return refs
}
