package respond

// StructureRespond 结构预测响应，PDB 文本原样返回
type StructureRespond struct {
	PDBStructure string `json:"pdb_structure"`
}
