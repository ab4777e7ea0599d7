package digest

// Digest header strings.
const (
	NewsletterTitle   = "🚀 DAILY WORLD – AI & Tech 일일 요약"
	SelectionCriteria = "① 내일도 영향이 남는 이슈 ② 과도한 감정 소모 제외 ③ 어제와 중복되는 뉴스 제외"
	EditorNote        = "이 뉴스는 클릭 수가 아니라 오늘 이후에도 남는 정보만 기준으로 편집했습니다."
	QuestionOfTheDay  = "정보를 덜 보는 것이 오히려 더 똑똑한 소비일까?"
)

// Pipeline tuning constants.
const (
	DefaultTopLimit              = 20
	MinTopItems                  = 5
	TitleDedupeJaccard           = 0.55
	DedupeNgramSim               = 0.35
	DedupeRecentDays             = 3
	SourceMaxPerOutlet           = 2
	BreakingMinSlots             = 1
	BreakingScoreBoost           = 0.6
	SourceDropNotSelectedTopN    = 30
	TopCategoryMaxShare          = 0.35
	TopFreshMaxHours             = 84
	TopFreshExceptMaxHours       = 168
	ContextualHardExcludeMaxHrs  = 96
	StaleEventMaxDays            = 90
	NearDupTitleJaccard          = 0.74
	NearDupContentJaccard        = 0.68
	NearDupKeyNgram              = 0.66
	AIImportanceMaxItems         = 40
	AIImportanceWeight           = 1.0
	AISemanticDedupeMaxItems     = 30
	AISemanticDedupeThreshold    = 0.88
	AIInputMaxChars              = 4000
	ArticleFetchMaxItems         = 12
	ArticleFetchMinChars         = 300
	ArticleFetchTimeoutSec       = 6
	LowQualityDowngradeMaxImport = 1
)

const lowQualityDowngradeRationale = "근거 부족이라 영향 판단 불가"

var hardExcludeKeywords = []string{
	"동향", "동향리포트", "리포트", "칼럼", "오피니언", "사설", "기고",
	"백서", "자료집", "세미나", "웨비나", "컨퍼런스", "포럼", "행사",
	"모집", "신청", "홍보",
	"promotion", "whitepaper", "report", "webinar", "conference",
	"forum", "opinion", "editorial", "op-ed",
}

var hardExcludeURLHints = []string{
	"/report", "/whitepaper", "/webinar", "/seminar", "/conference",
	"/event", "/download",
}

var excludeKeywords = []string{
	"연예", "아이돌", "배우", "가수", "예능", "드라마", "영화",
	"야구", "축구", "농구", "골프", "살인", "폭행", "성폭행",
	"맛집", "여행기", "경악", "충격",
	"entertainment", "celebrity", "baseball", "soccer", "movie",
	"drama", "murder", "assault", "restaurant", "travel",
}

var sourceTierA = []string{
	"Reuters", "Bloomberg", "Financial Times", "The Wall Street Journal",
	"WSJ", "The Economist", "CNBC", "AP", "AFP", "The New York Times",
	"NYT", "Ars Technica", "연합뉴스", "한국경제", "매일경제", "서울경제",
}

var sourceTierB = []string{
	"중앙일보", "동아일보", "MBC", "SBS", "KBS", "YTN", "조선일보",
	"한겨레", "경향신문", "머니투데이", "이데일리", "전자신문",
	"ZDNet Korea", "TechCrunch", "The Verge", "MIT Technology Review",
	"Semafor", "디일렉",
}

var breakingTerms = []string{"속보", "breaking", "just in", "developing", "긴급"}

// Hard-exclude keywords that can be excused for fresh macro/impact news.
var contextualHardExcludeKeywords = map[string]bool{
	"동향": true, "동향리포트": true, "리포트": true, "report": true,
}

var contextualHardExcludeURLHints = map[string]bool{"/report": true}

var macroEventKeywords = []string{
	"고용", "실업률", "물가", "cpi", "ppi", "pce", "기준금리", "금리",
	"환율", "관세", "무역", "협상", "제재", "실적", "가이던스", "매출",
	"영업이익",
}

var contextualBypassSignals = map[string]bool{
	LabelPolicy: true, LabelSanctions: true, LabelCapex: true,
	LabelInfra: true, LabelEarnings: true, LabelMarketDemand: true,
}

var longImpactSignals = map[string]bool{
	LabelPolicy: true, LabelSanctions: true, LabelEarnings: true,
	LabelSecurity: true,
}

var topFreshExceptSignals = map[string]bool{
	LabelPolicy: true, LabelSanctions: true, LabelEarnings: true,
	LabelCapex: true, LabelInfra: true, LabelSecurity: true,
	LabelMarketDemand: true,
}

// Signal priority used when a text matches more than two labels.
var impactSignalPriority = []string{
	LabelPolicy, LabelSanctions, LabelCapex, LabelInfra,
	LabelSecurity, LabelEarnings, LabelMarketDemand,
}

var impactSignalsMap = map[string][]string{
	LabelPolicy: {
		"bill", "law", "amendment", "regulation", "rule", "policy",
		"guideline", "government", "tariff", "trade", "negotiation",
		"agreement",
		"법안", "개정", "시행령", "규정", "규제", "국회", "정부", "관세",
		"무역", "협상", "협정",
	},
	LabelSanctions: {
		"sanction", "sanctions", "export control", "entity list",
		"embargo", "asset freeze",
		"수출통제", "블랙리스트", "자산 동결", "거래 금지", "금수",
	},
	LabelCapex: {
		"capex", "expansion", "build", "construction", "plant", "factory",
		"line", "data center", "facility", "capacity",
		"증설", "설비", "시설", "공장", "데이터센터", "건설", "라인",
	},
	LabelInfra: {
		"outage", "downtime", "disruption", "장애", "정전", "서비스 중단",
	},
	LabelSecurity: {
		"breach", "hack", "leak", "attack", "ransomware", "cve",
		"vulnerability",
		"침해", "해킹", "유출", "공격", "랜섬웨어", "취약점", "위협", "안보",
	},
	LabelEarnings: {
		"earnings", "guidance", "consensus", "profit", "loss", "margin",
		"forecast", "outlook", "revenue", "quarter", "q1", "q2", "q3", "q4",
		"매출", "영업이익", "순이익", "실적", "컨센서스", "가이던스", "전망",
	},
	LabelMarketDemand: {
		"sales", "demand", "deliveries", "shipments", "orders", "bookings",
		"inventory", "pricing",
		"판매", "수요", "출하", "주문", "예약", "재고", "가격", "유가",
	},
}

var impactSignalBaseLevels = map[string]int{
	LabelPolicy:       3,
	LabelSanctions:    3,
	LabelCapex:        3,
	LabelInfra:        3,
	LabelSecurity:     3,
	LabelEarnings:     2,
	LabelMarketDemand: 2,
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "for": true,
	"of": true, "and": true, "or": true, "in": true, "on": true,
	"with": true, "is": true, "are": true,
	"것": true, "수": true, "등": true, "및": true, "관련": true,
	"대한": true, "대해": true, "위해": true, "통해": true, "이번": true,
	"지난": true, "최근": true, "현재": true, "향후": true, "예상": true,
	"전망": true, "논의": true, "검토": true, "계획": true, "예정": true,
}

var dedupeEventTokens = map[string]bool{
	"funding": true, "investment": true, "acquisition": true,
	"merger": true, "ipo": true, "earnings": true, "sanctions": true,
	"policy": true, "capex": true, "trade": true, "tariff": true,
	"투자": true, "인수": true, "합병": true, "상장": true, "실적": true,
	"제재": true, "정책": true, "관세": true,
}

var dedupeClusterDomains = []struct {
	Label    string
	Keywords []string
}{
	{"에너지", []string{"에너지", "전력", "전력망", "원전", "천연가스", "energy", "power", "grid", "utility"}},
	{"반도체", []string{"반도체", "hbm", "파운드리", "euv", "tsmc", "칩", "chip"}},
	{"ai", []string{"ai", "인공지능", "llm", "모델", "gpu", "npu", "inference", "training"}},
	{"클라우드", []string{"클라우드", "cloud", "데이터센터", "datacenter", "aws", "azure", "gcp"}},
	{"금융", []string{"금융", "은행", "증권", "보험", "bank", "capital"}},
	{"공급망", []string{"공급망", "물류", "조달", "supply chain", "logistics"}},
}

// A relation label matches only when every required token is present.
var dedupeClusterRelations = []struct {
	Label    string
	Required []string
}{
	{"한미", []string{"한국", "미국"}},
	{"미중", []string{"미국", "중국"}},
	{"한중", []string{"한국", "중국"}},
	{"한일", []string{"한국", "일본"}},
	{"미일", []string{"미국", "일본"}},
	{"한EU", []string{"한국", "유럽", "eu", "europe"}},
	{"미EU", []string{"미국", "유럽", "eu", "europe"}},
}

var allowedImpactLabels = map[string]bool{
	LabelPolicy: true, LabelSanctions: true, LabelCapex: true,
	LabelInfra: true, LabelSecurity: true, LabelEarnings: true,
	LabelMarketDemand: true,
}

var policyStrongKeywords = []string{
	"법안", "법률", "규제", "행정명령", "법 개정", "법개정", "정책 발표",
	"통과", "의결", "시행", "발효", "공포", "가이드라인", "지침", "인허가",
	"과징금", "감독",
	"policy announcement", "official policy", "regulation", "rule",
	"guideline", "law", "bill",
}

var policyGovKeywords = []string{
	"정부", "외교", "국가", "당국", "diplomatic", "government", "state",
}

var policyNegotiationKeywords = []string{
	"협상", "협의", "협정", "회담", "대화",
	"negotiation", "talks", "summit", "dialogue",
}

var policyTradeOnlyKeywords = []string{
	"협상", "협의", "협정", "회담", "대화", "관세", "무역", "무역전쟁",
	"trade", "tariff", "trade talks", "negotiation", "agreement",
	"summit", "dialogue",
}

var sanctionsEvidenceKeywords = []string{
	"제재", "동결", "거래 금지", "거래금지", "블랙리스트", "수출통제",
	"shadow fleet", "assets frozen", "sanction", "sanctions",
	"export control", "asset freeze",
}

var marketDemandEvidenceKeywords = []string{
	"판매", "수요", "출하", "주문", "재고", "가격", "유가",
	"sales", "demand", "shipments", "deliveries", "orders", "inventory",
	"price", "oil price",
}

var securityEvidenceKeywords = []string{
	"격추", "위협", "드론", "공격", "침해", "유조선", "해협 봉쇄", "해협봉쇄",
	"attack", "breach", "drone", "threat", "tanker", "strait blockade",
}

var earningsMetricKeywords = []string{
	"매출", "영업이익", "영업익", "순이익", "순손실", "실적",
	"revenue", "operating profit", "operating income", "net income",
	"net profit", "earnings", "ebit", "ebitda",
}

var capexActionKeywords = []string{
	"설비투자", "투자", "투자 계획", "투자계획", "투자 발표", "증설",
	"라인", "공장", "데이터센터", "시설", "건설", "착공",
	"capex", "expansion", "build", "construction", "plant", "factory",
	"data center",
}

var capexPlanKeywords = []string{
	"계획", "발표", "착공", "건설", "설립", "확대", "증설", "추진", "예정",
	"plan", "announce", "start", "begin", "expand",
}

var infraKeywords = []string{
	"장애", "정전", "서비스 중단", "중단", "복구", "전력망", "망 장애",
	"통신 장애",
	"outage", "downtime", "disruption", "service disruption",
	"power grid", "network outage",
}

var numberUnitTokens = []string{
	"억", "조", "만", "%", "달러", "원",
	"billion", "million", "trillion", "usd", "$",
}

var staleIncidentTopicalKeywords = []string{
	"침해", "해킹", "유출", "사고", "사건", "누출", "탈취",
	"breach", "incident", "hack", "leak", "attack",
}

var incidentContextKeywords = []string{
	"발생", "발생한", "침해", "해킹", "유출", "사고", "사건", "누출", "탈취",
	"breach", "incident", "hack", "happened", "occurred",
}

var nonEventDateContextKeywords = []string{
	"분기", "실적", "매출", "영업이익", "순이익", "컨센서스", "가이던스",
	"전망",
	"forecast", "earnings", "quarter", "fiscal",
}

var internationalCategoryHints = []string{
	"글로벌", "국제", "정세", "지정학", "외교", "미국", "중국", "일본",
	"유럽", "eu", "nato", "g7", "g20", "중동", "러시아", "우크라",
	"이스라엘", "이란", "트럼프", "백악관", "워싱턴",
}

var domesticPolicyHints = []string{
	"국내", "국회", "대통령실", "금융위원회", "금감원", "공정위", "방통위",
	"과기정통부", "산업부", "기재부", "행안부", "복지부", "국토부",
	"서울시", "한국은행",
}

var categoryLabels = map[string]bool{
	"경제": true, "산업": true, "기술": true, "금융": true, "정책": true,
	"국제": true, "사회": true, "라이프": true, "헬스": true, "환경": true,
	"에너지": true, "모빌리티": true,
}

var categoryAliases = map[string]string{
	"world": "국제", "geopolitics": "국제", "global": "국제", "국제정세": "국제",
	"tech": "기술", "it": "기술", "ai": "기술", "technology": "기술",
	"business": "경제", "economy": "경제",
	"finance": "금융",
	"politics": "정책", "regulation": "정책", "policy": "정책",
	"health": "헬스", "life": "라이프", "society": "사회",
	"mobility": "모빌리티", "energy": "에너지", "environment": "환경",
	"industry": "산업",
}
