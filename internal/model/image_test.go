package model

import "testing"

func TestSourceImageDerivedKey(t *testing.T) {
	tests := []struct {
		name    string
		src     SourceImage
		version string
		want    string
	}{
		{
			name:    "nested base path",
			src:     SourceImage{BasePath: "users/42/photos", Name: "photo_001", Ext: "jpg"},
			version: "thumb",
			want:    "users/42/photos/thumb_001.jpg",
		},
		{
			name:    "suffix after last underscore",
			src:     SourceImage{BasePath: "a", Name: "my_holiday_photo_7", Ext: "png"},
			version: "web_mobile",
			want:    "a/web_mobile_7.png",
		},
		{
			name:    "no underscore keeps whole name",
			src:     SourceImage{BasePath: "a", Name: "cover", Ext: "gif"},
			version: "xxhdpi",
			want:    "a/xxhdpi_cover.gif",
		},
		{
			name:    "bucket root",
			src:     SourceImage{Name: "photo_001", Ext: "jpg"},
			version: "web",
			want:    "web_001.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.DerivedKey(tt.version); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSourceImageDerivedKeyIsDeterministic(t *testing.T) {
	src := SourceImage{BasePath: "uploads", Name: "photo_001", Ext: "jpg"}
	if src.DerivedKey("hdpi") != src.DerivedKey("hdpi") {
		t.Fatal("expected identical keys for the same source and version")
	}
	if src.DerivedKey("hdpi") == src.DerivedKey("mdpi") {
		t.Fatal("expected distinct keys for distinct versions")
	}
}
