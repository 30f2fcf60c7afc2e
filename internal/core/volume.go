package core

// UnityVolumeLR is the packed stereo volume value denoting unity gain
// on both channels.
const UnityVolumeLR = uint32(UnityVolume) | uint32(UnityVolume)<<16

// PushVolume unpacks a VolumeProvider.GetVolumeLR()-style packed value
// (L in the low 16 bits, R in the high 16 bits) and pushes each
// channel to the Mixer separately.
func PushVolume(mixer Mixer, name int32, packed uint32) error {
	l := uint64(packed & 0xFFFF)
	r := uint64(packed >> 16)
	if err := mixer.SetParameter(name, ParamGroupVolume, ParamFieldVolume0, l); err != nil {
		return err
	}
	return mixer.SetParameter(name, ParamGroupVolume, ParamFieldVolume1, r)
}
