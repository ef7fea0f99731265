package shipping

import (
	"strconv"
	"strings"
)

// Area keys. Shipping methods key their fee tables on a coarser grouping,
// so a method's AreaFees map may not carry every key listed here; a missing
// entry prices as 0.
const (
	AreaHokkaido    = "hokkaido"
	AreaNorthTohoku = "north_tohoku"
	AreaSouthTohoku = "south_tohoku"
	AreaKanto       = "kanto"
	AreaShinetsu    = "shinetsu"
	AreaHokuriku    = "hokuriku"
	AreaChubu       = "chubu"
	AreaKansai      = "kansai"
	AreaChugoku     = "chugoku"
	AreaShikoku     = "shikoku"
	AreaKyushu      = "kyushu"
	AreaOkinawa     = "okinawa"
)

type postalRange struct {
	lo, hi     int
	prefecture string
}

// postalRanges maps the first 3 digits of a postal code to a prefecture.
// Entries are evaluated top to bottom and the first match wins, so the
// narrow Gifu/Mie/Shiga bands must stay above the broad Osaka band that
// overlaps them. Do not reorder.
var postalRanges = []postalRange{
	{1, 9, "北海道"},
	{10, 19, "秋田県"},
	{20, 29, "岩手県"},
	{30, 39, "青森県"},
	{40, 99, "北海道"},
	{100, 208, "東京都"},
	{210, 259, "神奈川県"},
	{260, 299, "千葉県"},
	{300, 319, "茨城県"},
	{320, 329, "栃木県"},
	{330, 369, "埼玉県"},
	{370, 379, "群馬県"},
	{380, 399, "長野県"},
	{400, 409, "山梨県"},
	{410, 439, "静岡県"},
	{440, 498, "愛知県"},
	{500, 509, "岐阜県"},
	{510, 519, "三重県"},
	{520, 529, "滋賀県"},
	{500, 599, "大阪府"},
	{600, 629, "京都府"},
	{630, 639, "奈良県"},
	{640, 649, "和歌山県"},
	{650, 679, "兵庫県"},
	{680, 689, "鳥取県"},
	{690, 699, "島根県"},
	{700, 719, "岡山県"},
	{720, 739, "広島県"},
	{740, 759, "山口県"},
	{760, 769, "香川県"},
	{770, 779, "徳島県"},
	{780, 789, "高知県"},
	{790, 799, "愛媛県"},
	{800, 839, "福岡県"},
	{840, 849, "佐賀県"},
	{850, 859, "長崎県"},
	{860, 869, "熊本県"},
	{870, 879, "大分県"},
	{880, 889, "宮崎県"},
	{890, 899, "鹿児島県"},
	{900, 909, "沖縄県"},
	{910, 919, "福井県"},
	{920, 929, "石川県"},
	{930, 939, "富山県"},
	{940, 959, "新潟県"},
	{960, 979, "福島県"},
	{980, 989, "宮城県"},
	{990, 999, "山形県"},
}

// prefectureAreas groups all 47 prefectures into the 12 delivery regions.
// This grouping is independent of the fee keys shipping methods configure.
var prefectureAreas = map[string]string{
	"北海道": AreaHokkaido,

	"青森県": AreaNorthTohoku,
	"秋田県": AreaNorthTohoku,
	"岩手県": AreaNorthTohoku,

	"宮城県": AreaSouthTohoku,
	"山形県": AreaSouthTohoku,
	"福島県": AreaSouthTohoku,

	"茨城県":  AreaKanto,
	"栃木県":  AreaKanto,
	"群馬県":  AreaKanto,
	"埼玉県":  AreaKanto,
	"千葉県":  AreaKanto,
	"東京都":  AreaKanto,
	"神奈川県": AreaKanto,
	"山梨県":  AreaKanto,

	"新潟県": AreaShinetsu,
	"長野県": AreaShinetsu,

	"富山県": AreaHokuriku,
	"石川県": AreaHokuriku,
	"福井県": AreaHokuriku,

	"岐阜県": AreaChubu,
	"静岡県": AreaChubu,
	"愛知県": AreaChubu,
	"三重県": AreaChubu,

	"滋賀県":  AreaKansai,
	"京都府":  AreaKansai,
	"大阪府":  AreaKansai,
	"兵庫県":  AreaKansai,
	"奈良県":  AreaKansai,
	"和歌山県": AreaKansai,

	"鳥取県": AreaChugoku,
	"島根県": AreaChugoku,
	"岡山県": AreaChugoku,
	"広島県": AreaChugoku,
	"山口県": AreaChugoku,

	"徳島県": AreaShikoku,
	"香川県": AreaShikoku,
	"愛媛県": AreaShikoku,
	"高知県": AreaShikoku,

	"福岡県":  AreaKyushu,
	"佐賀県":  AreaKyushu,
	"長崎県":  AreaKyushu,
	"熊本県":  AreaKyushu,
	"大分県":  AreaKyushu,
	"宮崎県":  AreaKyushu,
	"鹿児島県": AreaKyushu,

	"沖縄県": AreaOkinawa,
}

// ResolvePrefecture maps a postal code to its prefecture using the first
// 3 digits. Returns "" when the code is malformed or no range matches.
func ResolvePrefecture(postalCode string) string {
	digits := normalizePostalCode(postalCode)
	if len(digits) < 3 {
		return ""
	}
	prefix, err := strconv.Atoi(digits[:3])
	if err != nil {
		return ""
	}
	for _, r := range postalRanges {
		if prefix >= r.lo && prefix <= r.hi {
			return r.prefecture
		}
	}
	return ""
}

// PrefectureToArea maps a prefecture name to its delivery region key.
// Returns "" for unknown prefectures.
func PrefectureToArea(prefecture string) string {
	return prefectureAreas[prefecture]
}

// ResolveArea resolves a postal code straight to a delivery region key.
func ResolveArea(postalCode string) string {
	return PrefectureToArea(ResolvePrefecture(postalCode))
}

func normalizePostalCode(postalCode string) string {
	s := strings.ReplaceAll(postalCode, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.TrimSpace(s)
}
