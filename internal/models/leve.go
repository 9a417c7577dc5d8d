package models

import "time"

// Leve is one recorded topographic survey event. Superviseur holds the
// username of the account that submitted the record and owns it; Topographe
// is the free-text name of the field surveyor, which may be someone else.
type Leve struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        time.Time `gorm:"not null" json:"date"`
	Village     string    `gorm:"size:100;not null" json:"village"`
	Region      string    `gorm:"size:100" json:"region"`
	Commune     string    `gorm:"size:100" json:"commune"`
	Type        string    `gorm:"size:50;not null" json:"type"`
	Quantite    int       `gorm:"not null" json:"quantite"`
	Appareil    string    `gorm:"size:100" json:"appareil"`
	Topographe  string    `gorm:"size:100;not null" json:"topographe"`
	Superviseur string    `gorm:"size:100" json:"superviseur"`
	CreatedAt   time.Time `json:"created_at"`
}

// Presentation fallbacks. These only feed the entry form when storage is
// unreachable; live dropdowns are rebuilt from distinct values in the data.
var (
	TypeOptions = []string{"Bâtiments", "Champs", "Édifice public", "Autre"}

	AppareilOptions = []string{"LT60H", "TRIMBLE", "AUTRE"}

	DefaultTopographes = []string{
		"Mouhamed Lamine THIOUB",
		"Mamadou GUEYE",
		"Djibril BODIAN",
		"Arona FALL",
		"Moussa DIOL",
		"Mbaye GAYE",
		"Ousseynou THIAM",
		"Ousmane BA",
		"Djibril Gueye",
		"Yakhaya Toure",
		"Seydina Aliou Sow",
		"Ndeye Yandé Diop",
		"Mohamed Ahmed Sylla",
		"Souleymane Niang",
		"Cheikh Diawara",
		"Mignane Gning",
		"Serigne Saliou Sow",
		"Gora Dieng",
	}
)
