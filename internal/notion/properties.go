package notion

// Properties maps property names to typed property values, mirroring the
// Notion page properties payload.
type Properties map[string]Property

// Property holds exactly one of the supported Notion property values.
// Checkbox and Number are pointers so that false and zero still serialize.
type Property struct {
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Number      *int           `json:"number,omitempty"`
	URL         string         `json:"url,omitempty"`
	Date        *Date          `json:"date,omitempty"`
}

// RichText is a single rich text fragment.
type RichText struct {
	Text TextContent `json:"text"`
}

// TextContent is the plain text content of a rich text fragment.
type TextContent struct {
	Content string `json:"content"`
}

// SelectOption is an option of a select or multi-select property.
type SelectOption struct {
	Name string `json:"name"`
}

// Date is a date property value. Only the start date is used.
type Date struct {
	Start string `json:"start"`
}

// Title builds a title property with a single text fragment.
func Title(s string) Property {
	return Property{Title: []RichText{{Text: TextContent{Content: s}}}}
}

// Text builds a rich text property with a single text fragment.
func Text(s string) Property {
	return Property{RichText: []RichText{{Text: TextContent{Content: s}}}}
}

// Checkbox builds a checkbox property.
func Checkbox(checked bool) Property {
	return Property{Checkbox: &checked}
}

// Select builds a select property with the given option name.
func Select(name string) Property {
	return Property{Select: &SelectOption{Name: name}}
}

// MultiSelect builds a multi-select property with the given option names.
func MultiSelect(names ...string) Property {
	options := make([]SelectOption, len(names))
	for i, name := range names {
		options[i] = SelectOption{Name: name}
	}
	return Property{MultiSelect: options}
}

// Number builds a number property.
func Number(n int) Property {
	return Property{Number: &n}
}

// URL builds a url property.
func URL(s string) Property {
	return Property{URL: s}
}

// DateStart builds a date property with only a start value.
func DateStart(start string) Property {
	return Property{Date: &Date{Start: start}}
}

// PlainText returns the concatenated text content of a title or rich text
// property. Useful for assertions and report rendering.
func (p Property) PlainText() string {
	var out string
	for _, rt := range p.Title {
		out += rt.Text.Content
	}
	for _, rt := range p.RichText {
		out += rt.Text.Content
	}
	return out
}
