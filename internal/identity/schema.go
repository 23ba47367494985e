package identity

// instrumentFields is the canonical set of WHO VA instrument field names a
// record may carry. Identity-field configuration is validated against this
// set: a configured name not listed here cannot participate in hashing.
var instrumentFields = map[string]struct{}{}

func init() {
	for _, f := range InstrumentFieldNames {
		instrumentFields[f] = struct{}{}
	}
}

// KnownField reports whether name is a recognized instrument field.
func KnownField(name string) bool {
	_, ok := instrumentFields[name]
	return ok
}

// InstrumentFieldNames lists the instrument fields in form order.
var InstrumentFieldNames = []string{
	"deviceid",
	"instancename",
	"phonenumber",
	"simserial",
	"username",
	"bid",
	"bid2",
	"bid_check",
	"province",
	"area",
	"hospital",
	"submissiondate",
	"Id10002",
	"Id10003",
	"Id10004",
	"Id10007",
	"Id10008",
	"Id10009",
	"Id10010",
	"Id10011",
	"Id10012",
	"Id10013",
	"Id10017",
	"Id10018",
	"Id10019",
	"Id10020",
	"Id10021",
	"Id10022",
	"Id10023",
	"Id10023_a",
	"Id10023_b",
	"Id10024",
	"ageInDays",
	"ageInYears",
	"ageInMonths",
	"age_group",
	"age_neonate_days",
	"age_child_unit",
	"age_child_days",
	"age_child_months",
	"age_child_years",
	"age_adult",
	"isNeonatal",
	"isChild",
	"isAdult",
	"Id10051",
	"Id10052",
	"Id10053",
	"Id10054",
	"Id10055",
	"Id10057",
	"Id10058",
	"Id10059",
	"Id10060",
	"Id10061",
	"Id10062",
	"Id10063",
	"Id10064",
	"Id10065",
	"Id10066",
	"Id10069",
	"Id10070",
	"Id10071",
	"Id10072",
	"Id10073",
	"Id10077",
	"Id10079",
	"Id10080",
	"Id10081",
	"Id10082",
	"Id10083",
	"Id10084",
	"Id10085",
	"Id10086",
	"Id10087",
	"Id10088",
	"Id10089",
	"Id10090",
	"Id10091",
	"Id10092",
	"Id10093",
	"Id10094",
	"Id10095",
	"Id10096",
	"Id10098",
	"Id10099",
	"Id10100",
	"Id10104",
	"Id10105",
	"Id10106",
	"Id10107",
	"Id10108",
	"Id10109",
	"Id10110",
	"Id10111",
	"Id10112",
	"Id10113",
	"Id10114",
	"Id10115",
	"Id10116",
	"Id10120",
	"Id10123",
	"Id10125",
	"Id10127",
	"Id10128",
	"Id10129",
	"Id10130",
	"Id10131",
	"Id10132",
	"Id10133",
	"Id10134",
	"Id10135",
	"Id10136",
	"Id10137",
	"Id10138",
	"Id10139",
	"Id10140",
	"Id10141",
	"Id10142",
	"Id10143",
	"Id10144",
	"Id10147",
	"Id10148",
	"Id10149",
	"Id10150",
	"Id10151",
	"Id10152",
	"Id10153",
	"Id10154",
	"Id10155",
	"Id10156",
	"Id10157",
	"Id10158",
	"Id10159",
	"Id10161",
	"Id10165",
	"Id10166",
	"Id10167",
	"Id10168",
	"Id10169",
	"Id10173",
	"Id10174",
	"Id10175",
	"Id10181",
	"Id10186",
	"Id10187",
	"Id10188",
	"Id10189",
	"Id10193",
	"Id10194",
	"Id10200",
	"Id10204",
	"Id10207",
	"Id10208",
	"Id10210",
	"Id10212",
	"Id10214",
	"Id10215",
	"Id10219",
	"Id10223",
	"Id10227",
	"Id10230",
	"Id10233",
	"Id10237",
	"Id10241",
	"Id10243",
	"Id10244",
	"Id10245",
	"Id10246",
	"Id10247",
	"Id10249",
	"Id10252",
	"Id10253",
	"Id10258",
	"Id10260",
	"Id10261",
	"Id10262",
	"Id10263",
	"Id10264",
	"Id10265",
	"Id10267",
	"Id10268",
	"Id10270",
	"Id10271",
	"Id10272",
	"Id10273",
	"Id10275",
	"Id10276",
	"Id10277",
	"Id10278",
	"Id10279",
	"Id10281",
	"Id10282",
	"Id10283",
	"Id10284",
	"Id10285",
	"Id10286",
	"Id10287",
	"Id10288",
	"Id10289",
	"Id10290",
	"Id10294",
	"Id10295",
	"Id10296",
	"Id10304",
	"Id10305",
	"Id10306",
	"Id10307",
	"Id10310",
	"Id10312",
	"Id10313",
	"Id10314",
	"Id10315",
	"Id10316",
	"Id10317",
	"Id10318",
	"Id10319",
	"Id10320",
	"Id10321",
	"Id10322",
	"Id10323",
	"Id10324",
	"Id10325",
	"Id10326",
	"Id10327",
	"Id10328",
	"Id10329",
	"Id10330",
	"Id10331",
	"Id10332",
	"Id10333",
	"Id10334",
	"Id10335",
	"Id10336",
	"Id10337",
	"Id10338",
	"Id10340",
	"Id10342",
	"Id10343",
	"Id10344",
	"Id10347",
	"Id10354",
	"Id10355",
	"Id10356",
	"Id10357",
	"Id10358",
	"Id10360",
	"Id10361",
	"Id10362",
	"Id10363",
	"Id10364",
	"Id10365",
	"Id10367",
	"Id10368",
	"Id10369",
	"Id10370",
	"Id10371",
	"Id10372",
	"Id10373",
	"Id10376",
	"Id10377",
	"Id10382",
	"Id10383",
	"Id10384",
	"Id10385",
	"Id10387",
	"Id10388",
	"Id10389",
	"Id10391",
	"Id10393",
	"Id10394",
	"Id10395",
	"Id10396",
	"Id10397",
	"Id10398",
	"Id10399",
	"Id10400",
	"Id10401",
	"Id10402",
	"Id10403",
	"Id10404",
	"Id10405",
	"Id10406",
	"Id10408",
	"Id10411",
	"Id10412",
	"Id10413",
	"Id10414",
	"Id10415",
	"Id10418",
	"Id10419",
	"Id10420",
	"Id10421",
	"Id10422",
	"Id10423",
	"Id10424",
	"Id10425",
	"Id10426",
	"Id10427",
	"Id10428",
	"Id10432",
	"Id10435",
	"Id10437",
	"Id10438",
	"Id10439",
	"Id10440",
	"Id10441",
	"Id10442",
	"Id10443",
	"Id10444",
	"Id10445",
	"Id10446",
	"Id10450",
	"Id10451",
	"Id10452",
	"Id10453",
	"Id10454",
	"Id10455",
	"Id10456",
	"Id10457",
	"Id10458",
	"Id10459",
	"Id10462",
	"Id10463",
	"Id10464",
	"Id10465",
	"Id10466",
	"Id10467",
	"Id10468",
	"Id10469",
	"Id10470",
	"Id10471",
	"Id10472",
	"Id10473",
	"Id10481",
	"Id10487",
	"Id10488",
	"geopoint",
	"comment",
}
