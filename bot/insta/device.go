package insta

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"github.com/google/uuid"
)

const (
	appVersion     = "222.0.0.13.114"
	appVersionCode = "350696709"
	appID          = "567067343352427"
	appLocale      = "en_US"
	capabilities   = "3brTvwE="
)

var androidDevices = []string{
	"26/8.0.0; 480dpi; 1080x1920; samsung; SM-G930F; herolte; samsungexynos8890",
	"28/9; 420dpi; 1080x2220; Google/google; Pixel 3; blueline; blueline",
	"29/10; 440dpi; 1080x2340; Xiaomi; Mi 9T; davinci; qcom",
	"30/11; 480dpi; 1080x2400; OnePlus; IN2013; OnePlus8; qcom",
}

// Device is the simulated Android handset. All ids are derived from the seed,
// so the same username always presents the same device.
type Device struct {
	DeviceID     string
	UUID         string
	PhoneID      string
	AdID         string
	DeviceString string
}

func NewDevice(seed string) Device {
	sum := md5.Sum([]byte(seed))
	hexSum := hex.EncodeToString(sum[:])

	return Device{
		DeviceID:     "android-" + hexSum[:16],
		UUID:         uuid.NewMD5(uuid.NameSpaceOID, []byte("uuid:"+seed)).String(),
		PhoneID:      uuid.NewMD5(uuid.NameSpaceOID, []byte("phone:"+seed)).String(),
		AdID:         uuid.NewMD5(uuid.NameSpaceOID, []byte("adid:"+seed)).String(),
		DeviceString: androidDevices[int(sum[0])%len(androidDevices)],
	}
}

func (d Device) UserAgent() string {
	return fmt.Sprintf("Instagram %s Android (%s; %s; %s)", appVersion, d.DeviceString, appLocale, appVersionCode)
}
