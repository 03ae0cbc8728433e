package seeders

import "equipment-manager/internal/entities"

// assetsData - стартовая инвентарная коллекция для локальной отладки.
var assetsData = []entities.Asset{
	{AssetNo: "AST-0001", Name: "Вакуумный насос", CodeNo: "VP-100", SerialNo: "VP100-2291", MkcCode: "MKC-11", Status: entities.AssetStatusNormal, AssetType: "option",
		Location: entities.AssetLocation{Region: "Склад", Major: "Стеллаж 1", Middle: "Полка 2"}},
	{AssetNo: "AST-0002", Name: "Контроллер температуры", CodeNo: "TC-20", SerialNo: "TC20-0113", MkcCode: "MKC-12", Status: entities.AssetStatusNormal, AssetType: "option",
		Location: entities.AssetLocation{Region: "Склад", Major: "Стеллаж 1", Middle: "Полка 3"}},
	{AssetNo: "AST-0003", Name: "Датчик давления", CodeNo: "PS-7", SerialNo: "PS7-5520", MkcCode: "MKC-15", Status: entities.AssetStatusNormal, AssetType: "sensor",
		Location: entities.AssetLocation{Region: "Склад", Major: "Стеллаж 2"}},
	{AssetNo: "AST-0004", Name: "Блок питания 24V", CodeNo: "PSU-24", SerialNo: "PSU24-0007", MkcCode: "MKC-20", Status: entities.AssetStatusDamage, AssetType: "power",
		Location: entities.AssetLocation{Region: "Ремонт"}},
	{AssetNo: "AST-0005", Name: "Охладитель", CodeNo: "CH-3", SerialNo: "CH3-1180", MkcCode: "MKC-31", Status: entities.AssetStatusNormal, AssetType: "option",
		Location: entities.AssetLocation{Region: "Склад", Major: "Стеллаж 3", Middle: "Полка 1"}},
}
