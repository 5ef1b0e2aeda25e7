package fotmob

// Wire types for the two endpoints the bot reads. Only the fields the
// snapshot mapping touches are declared; everything else in the payload
// is ignored by the decoder.

type teamEnvelope struct {
	Fixtures teamFixtures `json:"fixtures"`
}

type teamFixtures struct {
	AllFixtures allFixtures `json:"allFixtures"`
}

type allFixtures struct {
	NextMatch *nextMatch `json:"nextMatch"`
}

type nextMatch struct {
	ID     int64       `json:"id"`
	Status matchStatus `json:"status"`
}

type matchEnvelope struct {
	General matchGeneral `json:"general"`
	Header  matchHeader  `json:"header"`
	Content matchContent `json:"content"`
}

type matchGeneral struct {
	MatchID          int64  `json:"matchId"`
	LeagueName       string `json:"leagueName"`
	ParentLeagueName string `json:"parentLeagueName"`
	MatchTimeUTCDate string `json:"matchTimeUTCDate"`
	Started          bool   `json:"started"`
	Finished         bool   `json:"finished"`
}

type matchHeader struct {
	Teams  []headerTeam `json:"teams"`
	Status matchStatus  `json:"status"`
}

type headerTeam struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type matchStatus struct {
	UTCTime   string       `json:"utcTime"`
	Started   bool         `json:"started"`
	Finished  bool         `json:"finished"`
	Cancelled bool         `json:"cancelled"`
	Reason    statusLabel  `json:"reason"`
	LiveTime  *statusLabel `json:"liveTime"`
}

type statusLabel struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

type matchContent struct {
	Lineup  *matchLineup `json:"lineup"`
	Lineup2 *matchLineup `json:"lineup2"`
}

// lineup returns whichever lineup variant the payload carries; the
// provider has shipped both keys over time.
func (c matchContent) lineup() *matchLineup {
	if c.Lineup != nil {
		return c.Lineup
	}
	return c.Lineup2
}

type matchLineup struct {
	HomeTeam lineupSide `json:"homeTeam"`
	AwayTeam lineupSide `json:"awayTeam"`
}

func (l *matchLineup) side(teamID int64) (lineupSide, bool) {
	if l == nil {
		return lineupSide{}, false
	}
	if l.HomeTeam.ID == teamID {
		return l.HomeTeam, true
	}
	if l.AwayTeam.ID == teamID {
		return l.AwayTeam, true
	}
	return lineupSide{}, false
}

type lineupSide struct {
	ID       int64          `json:"id"`
	Starters []lineupPlayer `json:"starters"`
	Subs     []lineupPlayer `json:"subs"`
}

type lineupPlayer struct {
	ID          int64             `json:"id"`
	Performance playerPerformance `json:"performance"`
}

type playerPerformance struct {
	Rating             float64           `json:"rating"`
	MinutesPlayed      int               `json:"minutesPlayed"`
	Events             []performanceItem `json:"events"`
	SubstitutionEvents []performanceItem `json:"substitutionEvents"`
}

type performanceItem struct {
	Type string `json:"type"`
	Time int    `json:"time"`
}
