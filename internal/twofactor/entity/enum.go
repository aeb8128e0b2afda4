package entity

// Method identifies which credential satisfied the second factor.
type Method int16

const (
	MethodUnknown Method = iota
	MethodTOTP
	MethodBackupCode
)

// String returns the wire name of the method.
func (m Method) String() string {
	switch m {
	case MethodTOTP:
		return "totp"
	case MethodBackupCode:
		return "backup_code"
	default:
		return "unknown"
	}
}
