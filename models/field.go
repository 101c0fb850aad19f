package models

// AttributeKind enumerates the value sources a field can extract from.
// Dispatch over the kind is exhaustive; raw attribute names that are not
// special-cased carry their name alongside.
type AttributeKind int

const (
	// AttrDefault applies when no attribute was configured: trimmed
	// rendered text.
	AttrDefault AttributeKind = iota
	AttrInnerText
	AttrTextContent
	AttrInnerHTML
	AttrHref
	AttrSrc
	// AttrRaw looks the attribute up by name, falling back to trimmed
	// rendered text when the attribute is absent.
	AttrRaw
)

// Attribute is a field's attribute string resolved once into a closed
// dispatch target.
type Attribute struct {
	Kind AttributeKind
	Name string // attribute name when Kind is AttrRaw
}

// ParseAttribute maps a configured attribute string onto the closed enum.
func ParseAttribute(s string) Attribute {
	switch s {
	case "":
		return Attribute{Kind: AttrDefault}
	case "innerText":
		return Attribute{Kind: AttrInnerText}
	case "textContent":
		return Attribute{Kind: AttrTextContent}
	case "innerHTML":
		return Attribute{Kind: AttrInnerHTML}
	case "href":
		return Attribute{Kind: AttrHref}
	case "src":
		return Attribute{Kind: AttrSrc}
	default:
		return Attribute{Kind: AttrRaw, Name: s}
	}
}

// FieldConfig describes how a single field is located and extracted.
type FieldConfig struct {
	// Selector locates the field's elements. It may contain the shadow
	// descend delimiter ">>" when Shadow is set.
	Selector string `json:"selector" binding:"required"`

	// Attribute names the value source: "innerText", "textContent",
	// "innerHTML", "href", "src", or any raw attribute name. Empty means
	// trimmed rendered text.
	Attribute string `json:"attribute,omitempty"`

	// Shadow enables shadow-root descent for the selector.
	Shadow bool `json:"shadow,omitempty"`
}

// Field pairs a label with its configuration. Field order is significant:
// the first declared field wins seed-selection ties and drives positional
// assembly, which is why the API takes fields as an ordered array rather
// than a JSON object.
type Field struct {
	Label string `json:"label" binding:"required"`
	FieldConfig
}
