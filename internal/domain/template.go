package domain

import (
	"fmt"
	"sort"
)

// FieldType is the value kind of a specification field
type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldText    FieldType = "text"
	FieldSelect  FieldType = "select"
	FieldBoolean FieldType = "boolean"
)

// FieldTemplate describes one structured field of a category's specFields
type FieldTemplate struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Unit    string    `json:"unit,omitempty"`
	Options []string  `json:"options,omitempty"`
}

var templates = map[Category][]FieldTemplate{
	CategoryProcessor: {
		{Key: "cekirdekSayisi", Label: "Çekirdek Sayısı", Type: FieldNumber, Unit: "adet"},
		{Key: "threadSayisi", Label: "Thread Sayısı", Type: FieldNumber, Unit: "adet"},
		{Key: "temelFrekans", Label: "Temel Frekans", Type: FieldNumber, Unit: "GHz"},
		{Key: "maksimumFrekans", Label: "Maksimum Frekans", Type: FieldNumber, Unit: "GHz"},
		{Key: "soket", Label: "Soket", Type: FieldSelect, Options: []string{"AM4", "AM5", "LGA1700", "LGA1200"}},
		{Key: "uretimTeknolojisi", Label: "Üretim Teknolojisi", Type: FieldSelect, Options: []string{"7nm", "10nm", "14nm", "12nm"}},
	},
	CategoryGraphicsCard: {
		{Key: "bellekBoyutu", Label: "Bellek Boyutu", Type: FieldNumber, Unit: "GB"},
		{Key: "bellekTipi", Label: "Bellek Tipi", Type: FieldSelect, Options: []string{"GDDR6", "GDDR6X", "GDDR7"}},
		{Key: "cekirdekSayisi", Label: "Çekirdek Sayısı", Type: FieldNumber, Unit: "adet"},
		{Key: "temelFrekans", Label: "Temel Frekans", Type: FieldNumber, Unit: "MHz"},
		{Key: "overclockFrekans", Label: "Overclock Frekans", Type: FieldNumber, Unit: "MHz"},
		{Key: "gucTuketimi", Label: "Güç Tüketimi", Type: FieldNumber, Unit: "W"},
	},
	CategoryRAM: {
		{Key: "kapasite", Label: "Kapasite", Type: FieldNumber, Unit: "GB"},
		{Key: "hiz", Label: "Hız", Type: FieldNumber, Unit: "MHz"},
		{Key: "tip", Label: "Tip", Type: FieldSelect, Options: []string{"DDR4", "DDR5"}},
		{Key: "clDegeri", Label: "CL Değeri", Type: FieldText},
		{Key: "voltaj", Label: "Voltaj", Type: FieldNumber, Unit: "V"},
	},
	CategorySSD: {
		{Key: "kapasite", Label: "Kapasite", Type: FieldNumber, Unit: "GB"},
		{Key: "arayuz", Label: "Arayüz", Type: FieldSelect, Options: []string{"NVMe", "SATA"}},
		{Key: "okumaHizi", Label: "Okuma Hızı", Type: FieldNumber, Unit: "MB/s"},
		{Key: "yazmaHizi", Label: "Yazma Hızı", Type: FieldNumber, Unit: "MB/s"},
		{Key: "formFaktor", Label: "Form Faktör", Type: FieldSelect, Options: []string{"M.2", `2.5"`}},
	},
	CategoryMotherboard: {
		{Key: "soket", Label: "Soket", Type: FieldSelect, Options: []string{"AM4", "AM5", "LGA1700", "LGA1200"}},
		{Key: "cipseti", Label: "Çipseti", Type: FieldText},
		{Key: "formFaktor", Label: "Form Faktör", Type: FieldSelect, Options: []string{"ATX", "Micro-ATX", "Mini-ITX"}},
		{Key: "ramSlotSayisi", Label: "RAM Slot Sayısı", Type: FieldNumber, Unit: "adet"},
		{Key: "maksimumRam", Label: "Maksimum RAM", Type: FieldNumber, Unit: "GB"},
	},
	CategoryPowerSupply: {
		{Key: "guc", Label: "Güç", Type: FieldNumber, Unit: "W"},
		{Key: "sertifikasyon", Label: "Sertifikasyon", Type: FieldSelect, Options: []string{"80+ Bronze", "80+ Silver", "80+ Gold", "80+ Platinum", "80+ Titanium"}},
		{Key: "moduler", Label: "Modüler", Type: FieldSelect, Options: []string{"Tam Modüler", "Yarı Modüler", "Sabit Kablo"}},
		{Key: "formFaktor", Label: "Form Faktör", Type: FieldSelect, Options: []string{"ATX", "SFX"}},
	},
	CategoryCase: {
		{Key: "tip", Label: "Tip", Type: FieldSelect, Options: []string{"Mid Tower", "Full Tower", "Mini-ITX"}},
		{Key: "formFaktor", Label: "Form Faktör", Type: FieldSelect, Options: []string{"ATX", "Micro-ATX", "Mini-ITX"}},
		{Key: "malzeme", Label: "Malzeme", Type: FieldSelect, Options: []string{"Çelik", "Alüminyum", "Temperli Cam"}},
		{Key: "fanSlotu", Label: "Fan Slotu", Type: FieldNumber, Unit: "adet"},
		{Key: "camPanel", Label: "Cam Panel", Type: FieldBoolean},
	},
}

// TemplateFor returns the field schema for a category
func TemplateFor(c Category) ([]FieldTemplate, error) {
	t, ok := templates[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, c)
	}
	out := make([]FieldTemplate, len(t))
	copy(out, t)
	return out, nil
}

// ValidateSpecFields checks fields against the category template. Unknown keys
// and values of the wrong kind are rejected; missing keys are allowed.
func ValidateSpecFields(c Category, fields map[string]any) error {
	tmpl, err := TemplateFor(c)
	if err != nil {
		return err
	}
	byKey := make(map[string]FieldTemplate, len(tmpl))
	for _, f := range tmpl {
		byKey[f.Key] = f
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f, ok := byKey[k]
		if !ok {
			return fmt.Errorf("%w: unknown field %q for %s", ErrInvalidRequest, k, c)
		}
		if err := checkFieldValue(f, fields[k]); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldValue(f FieldTemplate, v any) error {
	if v == nil {
		return nil
	}
	switch f.Type {
	case FieldNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return nil
		}
		return fmt.Errorf("%w: field %q must be a number", ErrInvalidRequest, f.Key)
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: field %q must be a boolean", ErrInvalidRequest, f.Key)
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: field %q must be a string", ErrInvalidRequest, f.Key)
		}
		for _, o := range f.Options {
			if o == s {
				return nil
			}
		}
		return fmt.Errorf("%w: field %q has unsupported value %q", ErrInvalidRequest, f.Key, s)
	case FieldText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: field %q must be a string", ErrInvalidRequest, f.Key)
		}
	}
	return nil
}
