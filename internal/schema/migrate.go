package schema

// Migrate backfills every canonical field missing from rec and returns rec.
//
// Present keys are never overwritten, with one exception: an acces value that
// is not an object is replaced by an empty object before its sub-keys are
// backfilled. Keys outside the schema are left untouched. A nil rec yields a
// new record. Migrate never fails and is idempotent.
func Migrate(rec map[string]any) map[string]any {
	if rec == nil {
		rec = make(map[string]any, len(fields))
	}

	for _, f := range fields {
		if _, ok := rec[f.Key]; !ok {
			rec[f.Key] = f.Default()
		}
	}

	acces, ok := rec[KeyAcces].(map[string]any)
	if !ok {
		acces = make(map[string]any, len(accesFields))
		rec[KeyAcces] = acces
	}
	for _, k := range accesFields {
		if _, ok := acces[k]; !ok {
			acces[k] = 0
		}
	}

	return rec
}

// MigrateAll runs Migrate over every record of a filieres map. Nil records are
// replaced in the map.
func MigrateAll(filieres map[string]map[string]any) {
	for key, rec := range filieres {
		filieres[key] = Migrate(rec)
	}
}
