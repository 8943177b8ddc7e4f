package mqtt

import "testing"

func TestTopicManager_Topics(t *testing.T) {
	m := NewTopicManager("indoornav")

	if got := m.GetScanTopic(); got != "indoornav/v1/scans/+" {
		t.Errorf("scan topic = %q", got)
	}
	if got := m.GetFixPublishTopic("dev-1"); got != "indoornav/v1/fixes/dev-1" {
		t.Errorf("fix topic = %q", got)
	}
	if got := m.GetPresencePublishTopic("dev-1"); got != "indoornav/v1/presence/dev-1" {
		t.Errorf("presence topic = %q", got)
	}
}

func TestTopicManager_TrailingSlashTrimmed(t *testing.T) {
	m := NewTopicManager("indoornav/")
	if got := m.GetMotionTopic(); got != "indoornav/v1/motion/+" {
		t.Errorf("motion topic = %q", got)
	}
}

func TestTopicManager_ExtractDeviceId(t *testing.T) {
	m := NewTopicManager("indoornav")

	tests := []struct {
		topic    string
		template string
		want     string
		wantErr  bool
	}{
		{"indoornav/v1/scans/phone-7", ScanTopicTemplate, "phone-7", false},
		{"indoornav/v1/motion/tag.01", MotionTopicTemplate, "tag.01", false},
		{"indoornav/v1/geo/dev-1", GeoTopicTemplate, "dev-1", false},
		{"indoornav/v1/scans/a/b", ScanTopicTemplate, "", true},
		{"other/v1/scans/dev-1", ScanTopicTemplate, "", true},
	}

	for _, tt := range tests {
		got, err := m.ExtractDeviceId(tt.topic, tt.template)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ExtractDeviceId(%q) expected error", tt.topic)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractDeviceId(%q): %v", tt.topic, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractDeviceId(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestTopicManager_ExtractBeaconId(t *testing.T) {
	m := NewTopicManager("indoornav")

	got, err := m.ExtractBeaconId("indoornav/v1/anchors/aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("ExtractBeaconId: %v", err)
	}
	if got != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("beacon id = %q", got)
	}
}
