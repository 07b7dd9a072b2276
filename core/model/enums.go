package model

// Accessibility describes who can reach a charging location.
type Accessibility string

const (
	AccessibilityUnspecified   Accessibility = "Unspecified"
	AccessibilityFreePublic    Accessibility = "FreePubliclyAccessible"
	AccessibilityRestricted    Accessibility = "RestrictedAccess"
	AccessibilityPayingPublic  Accessibility = "PayingPubliclyAccessible"
	AccessibilityPrivateAccess Accessibility = "PrivateAccess"
)

// GridConnection describes how a charging location is connected to the grid.
type GridConnection string

const (
	GridConnectionUnspecified GridConnection = "Unspecified"
	GridConnectionSinglePhase GridConnection = "SinglePhase"
	GridConnectionThreePhase  GridConnection = "ThreePhase"
	GridConnectionDC          GridConnection = "DC"
)

// AuthenticationMode is a supported way of authorizing a charging session.
type AuthenticationMode string

const (
	AuthRFID          AuthenticationMode = "RFID"
	AuthApp           AuthenticationMode = "App"
	AuthPlugAndCharge AuthenticationMode = "PlugAndCharge"
	AuthRemote        AuthenticationMode = "Remote"
	AuthDirectPay     AuthenticationMode = "DirectPayment"
)

// PaymentOption is a supported payment method.
type PaymentOption string

const (
	PaymentFree     PaymentOption = "Free"
	PaymentContract PaymentOption = "Contract"
	PaymentDirect   PaymentOption = "Direct"
)

// ConnectorType is the plug standard of an EVSE.
type ConnectorType string

const (
	ConnectorType2   ConnectorType = "IEC62196Type2"
	ConnectorCCS     ConnectorType = "CCS2"
	ConnectorCHAdeMO ConnectorType = "CHAdeMO"
	ConnectorSchuko  ConnectorType = "Schuko"
)
