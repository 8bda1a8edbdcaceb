package config

// Merge deep-merges two YAML-shaped documents (map[string]any, []any, or
// scalar nodes) with base-wins precedence:
//
//   - map × map: merged per key; keys only in overlay are added, keys in
//     both recurse, keys only in base are kept.
//   - sequence × sequence: base then overlay, concatenated.
//   - anything else (type mismatch or two scalars): base wins.
//
// Callers layer configuration as Merge(fileConfig, injectedConfig) so a
// hand-edited file always wins on conflicting scalars while injected
// defaults fill in whatever the file omits.
func Merge(base, overlay any) any {
	switch b := base.(type) {
	case map[string]any:
		o, ok := overlay.(map[string]any)
		if !ok {
			return base
		}
		merged := make(map[string]any, len(b)+len(o))
		for k, v := range b {
			merged[k] = v
		}
		for k, v := range o {
			if existing, found := merged[k]; found {
				merged[k] = Merge(existing, v)
			} else {
				merged[k] = v
			}
		}
		return merged
	case []any:
		o, ok := overlay.([]any)
		if !ok {
			return base
		}
		merged := make([]any, 0, len(b)+len(o))
		merged = append(merged, b...)
		merged = append(merged, o...)
		return merged
	default:
		return base
	}
}
