package detour

type DtStatus uint32

const (
	// High level status.
	DT_FAILURE DtStatus = 1 << 31 // Operation failed.
	DT_SUCCESS DtStatus = 1 << 30 // Operation succeed.

	// Detail information for status.
	DT_STATUS_DETAIL_MASK DtStatus = 0x0ffffff
	DT_INVALID_PARAM      DtStatus = 1 << 3 // An endpoint is not on the mesh.
	DT_NO_MESH            DtStatus = 1 << 4 // Nothing has been generated, or the mesh is empty.
	DT_UNREACHABLE        DtStatus = 1 << 5 // No corridor connects the endpoints.
	DT_BROKEN_CORRIDOR    DtStatus = 1 << 6 // The corridor could not be string-pulled.
)

// Returns true of status is success.
func (status DtStatus) DtStatusSucceed() bool {
	return status&DT_SUCCESS != 0
}

// Returns true of status is failure.
func (status DtStatus) DtStatusFailed() bool {
	return status&DT_FAILURE != 0
}

// Returns true if specific detail is set.
func (status DtStatus) DtStatusDetail(detail DtStatus) bool {
	return status&detail != 0
}

func (status DtStatus) String() string {
	switch {
	case status.DtStatusSucceed():
		return "success"
	case status.DtStatusDetail(DT_NO_MESH):
		return "no mesh"
	case status.DtStatusDetail(DT_INVALID_PARAM):
		return "endpoint off mesh"
	case status.DtStatusDetail(DT_UNREACHABLE):
		return "unreachable"
	case status.DtStatusDetail(DT_BROKEN_CORRIDOR):
		return "broken corridor"
	default:
		return "failure"
	}
}
