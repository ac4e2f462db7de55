package directory

import (
	"strings"
	"testing"
)

const openflightsSample = `507,"London Heathrow Airport","London","United Kingdom","LHR","EGLL",51.4706,-0.461941,83,0,"E","Europe/London","airport","OurAirports"
3093,"Indira Gandhi International Airport","Delhi","India","DEL","VIDP",28.5665,77.103104,777,5.5,"N","Asia/Calcutta","airport","OurAirports"
1,"Useless Heliport","Nowhere","Atlantis",\N,"XXXX",0.0,0.0,0,0,"U",\N,"heliport","OurAirports"
9999,"Broken Row"`

func TestParseOpenflights(t *testing.T) {
	index, err := parseOpenflights(strings.NewReader(openflightsSample))
	if err != nil {
		t.Fatalf("parseOpenflights: %v", err)
	}

	if len(index) != 2 {
		t.Fatalf("len(index) = %d, want 2 (rows without IATA are skipped)", len(index))
	}

	lhr := index["LHR"]
	if lhr == nil {
		t.Fatal("LHR missing from index")
	}
	if lhr.ICAO != "EGLL" || lhr.City != "London" || lhr.TZ != "Europe/London" {
		t.Errorf("LHR entry = %+v", lhr)
	}
	if lhr.Lat == 0 || lhr.Lon == 0 {
		t.Error("coordinates should be parsed")
	}

	// The legacy Asia/Calcutta alias is normalized.
	del := index["DEL"]
	if del == nil {
		t.Fatal("DEL missing from index")
	}
	if del.TZ != "Asia/Kolkata" {
		t.Errorf("DEL TZ = %q, want Asia/Kolkata", del.TZ)
	}
}

func TestParseOpenflightsEmpty(t *testing.T) {
	if _, err := parseOpenflights(strings.NewReader("")); err == nil {
		t.Fatal("empty dataset should be an error, not an empty index")
	}
}

func TestLoadSeed(t *testing.T) {
	index, err := LoadSeed()
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(index) < 20 {
		t.Fatalf("len(index) = %d, want the full embedded dataset", len(index))
	}

	del := index["DEL"]
	if del == nil {
		t.Fatal("DEL missing from seed")
	}
	if del.ICAO != "VIDP" || del.TZ != "Asia/Kolkata" || del.Source != "seed" {
		t.Errorf("DEL seed entry = %+v", del)
	}
}

func TestScrub(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`\N`, ""},
		{" LHR ", "LHR"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := scrub(tt.in); got != tt.want {
			t.Errorf("scrub(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
