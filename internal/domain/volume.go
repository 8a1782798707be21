package domain

// VolumeOwner identifies the application a volume belongs to.
// The zero value means the volume is standalone.
type VolumeOwner struct {
	Application string
	Dir         string
}

// Standalone reports whether no owning application was resolved.
func (o VolumeOwner) Standalone() bool {
	return o.Application == ""
}

// Volume is a named volume together with its resolved owner.
type Volume struct {
	Name  string
	Owner VolumeOwner
}
