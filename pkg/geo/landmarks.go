package geo

type landmark struct {
	pt    Point
	names []string
}

var builtinCities = []struct {
	name string
	pt   Point
}{
	{"Rome", Point{41.9028, 12.4964}},
	{"Roma", Point{41.9028, 12.4964}},
	{"Florence", Point{43.7696, 11.2558}},
	{"Firenze", Point{43.7696, 11.2558}},
	{"Milan", Point{45.4642, 9.1900}},
	{"Milano", Point{45.4642, 9.1900}},
	{"Paris", Point{48.8566, 2.3522}},
}

var builtinLandmarks = []landmark{
	// Rome
	{Point{41.8902, 12.4922}, []string{"Colosseum", "Colosseo", "Flavian Amphitheatre"}},
	{Point{41.8925, 12.4853}, []string{"Roman Forum", "Foro Romano"}},
	{Point{41.8894, 12.4875}, []string{"Palatine Hill", "Palatino"}},
	{Point{41.8986, 12.4769}, []string{"Pantheon"}},
	{Point{41.9009, 12.4833}, []string{"Trevi Fountain", "Fontana di Trevi"}},
	{Point{41.9060, 12.4828}, []string{"Spanish Steps", "Piazza di Spagna"}},
	{Point{41.8992, 12.4731}, []string{"Piazza Navona"}},
	{Point{41.9065, 12.4536}, []string{"Vatican Museums", "Musei Vaticani", "Sistine Chapel"}},
	{Point{41.9022, 12.4539}, []string{"St Peter's Basilica", "Saint Peter's Basilica", "Basilica di San Pietro"}},
	{Point{41.9031, 12.4663}, []string{"Castel Sant'Angelo"}},
	{Point{41.8897, 12.4695}, []string{"Trastevere"}},
	{Point{41.8955, 12.4722}, []string{"Campo de' Fiori"}},
	{Point{41.9142, 12.4923}, []string{"Villa Borghese", "Galleria Borghese"}},
	{Point{41.9113, 12.4786}, []string{"Pincio", "Terrazza del Pincio"}},
	{Point{41.8765, 12.4757}, []string{"Testaccio"}},
	{Point{41.8955, 12.4925}, []string{"Monti", "Rione Monti"}},
	{Point{41.8848, 12.4793}, []string{"Giardino degli Aranci", "Orange Garden"}},
	{Point{41.8914, 12.4611}, []string{"Gianicolo", "Janiculum"}},
	{Point{41.8925, 12.4776}, []string{"Jewish Ghetto", "Ghetto Ebraico"}},
	{Point{41.8790, 12.4925}, []string{"Baths of Caracalla", "Terme di Caracalla"}},
	{Point{41.8933, 12.4828}, []string{"Capitoline Museums", "Musei Capitolini", "Campidoglio"}},
	{Point{41.8958, 12.4823}, []string{"Altare della Patria", "Vittoriano", "Piazza Venezia"}},

	// Florence
	{Point{43.7731, 11.2560}, []string{"Duomo", "Florence Cathedral", "Santa Maria del Fiore"}},
	{Point{43.7678, 11.2553}, []string{"Uffizi", "Uffizi Gallery", "Galleria degli Uffizi"}},
	{Point{43.7680, 11.2531}, []string{"Ponte Vecchio"}},
	{Point{43.7629, 11.2650}, []string{"Piazzale Michelangelo"}},
	{Point{43.7652, 11.2500}, []string{"Palazzo Pitti", "Pitti Palace"}},
	{Point{43.7625, 11.2484}, []string{"Boboli Gardens", "Giardino di Boboli"}},
	{Point{43.7768, 11.2586}, []string{"Galleria dell'Accademia", "Accademia Gallery"}},
	{Point{43.7665, 11.2480}, []string{"Oltrarno"}},
	{Point{43.7686, 11.2622}, []string{"Santa Croce", "Basilica di Santa Croce"}},
	{Point{43.7765, 11.2534}, []string{"Mercato Centrale"}},
	{Point{43.7696, 11.2558}, []string{"Piazza della Signoria", "Palazzo Vecchio"}},

	// Milan
	{Point{45.4641, 9.1919}, []string{"Duomo", "Duomo di Milano", "Milan Cathedral"}},
	{Point{45.4659, 9.1900}, []string{"Galleria Vittorio Emanuele II"}},
	{Point{45.4705, 9.1794}, []string{"Sforza Castle", "Castello Sforzesco"}},
	{Point{45.4520, 9.1760}, []string{"Navigli"}},
	{Point{45.4720, 9.1880}, []string{"Brera", "Pinacoteca di Brera"}},
	{Point{45.4660, 9.1710}, []string{"Santa Maria delle Grazie", "The Last Supper", "Cenacolo Vinciano"}},
	{Point{45.4674, 9.1895}, []string{"La Scala", "Teatro alla Scala"}},

	// Paris
	{Point{48.8462, 2.3464}, []string{"Pantheon", "Panthéon"}},
	{Point{48.8584, 2.2945}, []string{"Eiffel Tower", "Tour Eiffel"}},
	{Point{48.8606, 2.3376}, []string{"Louvre", "Musée du Louvre"}},
}
