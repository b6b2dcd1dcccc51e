package matching

// compatibility maps a recipient blood type to the donor types it accepts.
var compatibility = map[BloodType][]BloodType{
	APos:  {APos, ANeg, OPos, ONeg},
	ANeg:  {ANeg, ONeg},
	BPos:  {BPos, BNeg, OPos, ONeg},
	BNeg:  {BNeg, ONeg},
	ABPos: {APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg},
	ABNeg: {ANeg, BNeg, ABNeg, ONeg},
	OPos:  {OPos, ONeg},
	ONeg:  {ONeg},
}

// AcceptedDonorTypes returns the donor blood types a recipient may receive.
// Unknown recipients accept nothing.
func AcceptedDonorTypes(recipient BloodType) []BloodType {
	accepted := compatibility[recipient]
	out := make([]BloodType, len(accepted))
	copy(out, accepted)
	return out
}

func CanDonate(donor, recipient BloodType) bool {
	if donor == "" {
		return false
	}
	for _, bt := range compatibility[recipient] {
		if bt == donor {
			return true
		}
	}
	return false
}

// IsCompatible reports whether d may fulfil req. Unavailable donors are
// never compatible.
func IsCompatible(req Request, d Donor) bool {
	if !d.Available {
		return false
	}
	switch req.Kind {
	case KindBlood:
		return CanDonate(d.BloodType, req.BloodType)
	case KindOrgan:
		return d.Offers(req.Organ)
	default:
		return false
	}
}
