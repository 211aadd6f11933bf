package canc

// weather builds a record of the toy weather stream.
func weather(sky, wind, play string) Record {
	return Record{
		Attrs: []Pair{{Attribute: "sky", Value: sky}, {Attribute: "wind", Value: wind}},
		Label: play,
	}
}

// weatherStore holds (sunny, no, no), (rainy, no, yes), (sunny, yes, yes)
// with uniform weights.
func weatherStore() *RecordStore {
	s := NewRecordStore(0)
	for _, r := range []Record{
		weather("sunny", "no", "no"),
		weather("rainy", "no", "yes"),
		weather("sunny", "yes", "yes"),
	} {
		r.Weight = 1.0 / 3
		s.Add(r)
	}
	return s
}

// windyStore is a stream where wind decides play and sky is noise.
func windyStore() *RecordStore {
	s := NewRecordStore(0)
	for _, r := range []Record{
		weather("sunny", "no", "no"),
		weather("rainy", "no", "no"),
		weather("sunny", "yes", "yes"),
		weather("rainy", "yes", "yes"),
	} {
		r.Weight = 0.25
		s.Add(r)
	}
	return s
}

// tennisStore is a larger three-attribute stream used for property checks.
func tennisStore() *RecordStore {
	rows := [][4]string{
		{"sunny", "hot", "weak", "no"},
		{"sunny", "hot", "strong", "no"},
		{"overcast", "hot", "weak", "yes"},
		{"rain", "mild", "weak", "yes"},
		{"rain", "cool", "weak", "yes"},
		{"rain", "cool", "strong", "no"},
		{"overcast", "cool", "strong", "yes"},
		{"sunny", "mild", "weak", "no"},
		{"sunny", "cool", "weak", "yes"},
		{"rain", "mild", "weak", "yes"},
	}
	s := NewRecordStore(0)
	for _, row := range rows {
		s.Add(Record{
			Attrs: []Pair{
				{Attribute: "outlook", Value: row[0]},
				{Attribute: "temp", Value: row[1]},
				{Attribute: "wind", Value: row[2]},
			},
			Label:  row[3],
			Weight: 1.0 / float64(len(rows)),
		})
	}
	return s
}

// bruteLookup scans the records for the positions having value for attr.
func bruteLookup(s *RecordStore, attr, value string) Extent {
	out := Extent{}
	for pos := range s.Len() {
		if s.Record(pos).Has(Pair{Attribute: attr, Value: value}) {
			out = append(out, pos)
		}
	}
	return out
}
